package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"golang.org/x/crypto/ssh"
)

// Target describes the remote host a run's stages execute on.
type Target struct {
	Hostname   string
	Username   string
	PrivateKey []byte
}

// LineSink receives stage output line by line as it is produced.
type LineSink func(line string)

// ExecSession is one open connection to a run's target host. Stages of the
// same run share the session so later stages see earlier stages' artifacts.
type ExecSession interface {
	PrepareWorkspace(
		ctx context.Context,
		repository, workspace, workdir, branch, commitHash string,
		sink LineSink,
	) (string, error)
	ExecuteStage(ctx context.Context, stage *store.Stage, dir string, sink LineSink) error
	Close() error
}

type StageExecutor interface {
	Open(ctx context.Context, target Target) (ExecSession, error)
}

func NewSSHStageExecutor() *SSHStageExecutor {
	return &SSHStageExecutor{}
}

type SSHStageExecutor struct{}

func (e *SSHStageExecutor) Open(ctx context.Context, target Target) (ExecSession, error) {
	signer, err := ssh.ParsePrivateKey(target.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("err parsing ssh private key: %+w", err)
	}
	auth := ssh.PublicKeys(signer)
	cc := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	hostname := target.Hostname
	if !strings.Contains(hostname, ":") {
		hostname += ":22"
	}
	client, err := ssh.Dial("tcp", hostname, cc)
	if err != nil {
		return nil, fmt.Errorf("err dialing ssh: %+w", err)
	}
	return &sshExecSession{client: client}, nil
}

type sshExecSession struct {
	client *ssh.Client
}

func (s *sshExecSession) Close() error {
	return s.client.Close()
}

// PrepareWorkspace clones the repository into a fresh run directory under
// the server workspace and returns the project directory stages run in.
func (s *sshExecSession) PrepareWorkspace(
	ctx context.Context,
	repository, workspace, workdir, branch, commitHash string,
	sink LineSink,
) (string, error) {
	runDir := fmt.Sprintf("%s/%s", workspace, workdir)
	if err := s.runCommand(
		ctx,
		fmt.Sprintf("mkdir -p %s", runDir),
		"", 5*time.Second, sink,
	); err != nil {
		return "", err
	}
	if err := s.runCommand(
		ctx,
		fmt.Sprintf("git clone -b %s %s", branch, repository),
		runDir, 60*time.Second, sink,
	); err != nil {
		return "", err
	}

	repoDir := repository[strings.LastIndex(repository, "/")+1:]
	repoDir = strings.TrimSuffix(repoDir, ".git")
	projectDir := fmt.Sprintf("%s/%s", runDir, repoDir)

	if commitHash != "" {
		if err := s.runCommand(
			ctx,
			fmt.Sprintf("git checkout %s", commitHash),
			projectDir, 30*time.Second, sink,
		); err != nil {
			return "", err
		}
	}
	return projectDir, nil
}

// ExecuteStage runs the stage's commands in sequence inside dir. A single
// timeout spans the whole stage; the first non-zero exit stops it.
func (s *sshExecSession) ExecuteStage(
	ctx context.Context,
	stage *store.Stage,
	dir string,
	sink LineSink,
) error {
	commands := stage.CommandList()
	if len(commands) == 0 {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, stage.Timeout())
	defer cancel()

	for _, command := range commands {
		err := s.runStageCommand(timeoutCtx, ctx, command, dir, sink)
		if err == nil {
			continue
		}
		var rce RunCancelError
		if errors.As(err, &rce) {
			return err
		}
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return StageTimeoutError{Stage: stage.Name, Timeout: stage.Timeout()}
		}
		return err
	}
	return nil
}

func (s *sshExecSession) runStageCommand(
	timeoutCtx, runCtx context.Context,
	command, dir string,
	sink LineSink,
) error {
	sess, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("err creating new session: %+w", err)
	}
	defer sess.Close()

	stdout, err := sess.StdoutPipe()
	if err != nil {
		return fmt.Errorf("err getting stdout pipe: %+w", err)
	}
	stderr, err := sess.StderrPipe()
	if err != nil {
		return fmt.Errorf("err getting stderr pipe: %+w", err)
	}

	cmd := command
	if dir != "" {
		cmd = fmt.Sprintf("cd %s && %s", dir, command)
	}

	doneCh := make(chan error, 1)
	go func() {
		if err := sess.Start(cmd); err != nil {
			doneCh <- errors.Join(fmt.Errorf("err starting command %s", cmd), err)
			return
		}

		// scan output produced by the command and pass it to the sink
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanner := bufio.NewScanner(stdout)
			for scanner.Scan() {
				sink(scanner.Text())
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				sink(scanner.Text())
			}
		}()

		err := sess.Wait()
		wg.Wait()
		doneCh <- err
	}()

	select {
	case <-timeoutCtx.Done():
	case <-runCtx.Done():
	case err := <-doneCh:
		if err == nil {
			return nil
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return CommandError{Command: command, ExitStatus: exitErr.ExitStatus()}
		}
		return err
	}

	// timeoutCtx derives from runCtx, so a user cancel readies both and
	// the select picks either; classify on the parent, not the case
	sig, stopErr := interruptReason(timeoutCtx, runCtx)
	sess.Signal(sig)
	return stopErr
}

// interruptReason classifies an interrupted command. A cancelled run wins
// over a spent stage budget: cancelling interrupts the remote process,
// a timeout kills it.
func interruptReason(timeoutCtx, runCtx context.Context) (ssh.Signal, error) {
	if runCtx.Err() != nil {
		return ssh.SIGINT, RunCancelError{Message: "stage execution cancelled by user"}
	}
	return ssh.SIGKILL, timeoutCtx.Err()
}

// runCommand runs one bounded setup command, buffering nothing; output goes
// straight to the sink.
func (s *sshExecSession) runCommand(
	ctx context.Context,
	command, dir string,
	timeout time.Duration,
	sink LineSink,
) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.runStageCommand(ctxTimeout, ctx, command, dir, sink)
}
