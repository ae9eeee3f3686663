package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal"
	"github.com/MohamedRoshdi/devflow-sub024/internal/util"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

func NewSFTPArtifactCollector() *SFTPArtifactCollector {
	return &SFTPArtifactCollector{baseDir: internal.ArtifactsDir}
}

// SFTPArtifactCollector downloads a run's declared artifact paths from the
// target host into a local per-run directory.
type SFTPArtifactCollector struct {
	baseDir string
}

func (c *SFTPArtifactCollector) Collect(
	ctx context.Context,
	target Target,
	projectDir string,
	patterns []string,
	runID int64,
) (string, error) {
	if exists, _ := util.PathExists(c.baseDir); !exists {
		if err := os.Mkdir(c.baseDir, os.ModePerm); err != nil {
			return "", err
		}
	}

	artifactsDir := path.Join(c.baseDir, fmt.Sprintf("%d", runID))
	if exists, _ := util.PathExists(artifactsDir); exists {
		return artifactsDir, nil
	}
	if err := os.Mkdir(artifactsDir, os.ModePerm); err != nil {
		return "", err
	}

	signer, err := ssh.ParsePrivateKey(target.PrivateKey)
	if err != nil {
		return "", err
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
		return "", err
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return "", err
	}
	defer sftpClient.Close()

	for i, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		dirName := util.RemoveNonAlphabetChars(pattern)
		if err := recursiveDownload(
			sftpClient,
			filepath.Join(projectDir, pattern),
			filepath.Join(artifactsDir, fmt.Sprintf("%d_%s", i+1, dirName), pattern),
		); err != nil {
			return "", err
		}
	}

	return artifactsDir, nil
}

func recursiveDownload(sftpClient *sftp.Client, remotePath, localPath string) error {
	stat, err := sftpClient.Stat(remotePath)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		if err := os.MkdirAll(filepath.Dir(localPath), os.ModePerm); err != nil {
			return err
		}
		return downloadFile(sftpClient, remotePath, localPath)
	}

	files, err := sftpClient.ReadDir(remotePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(localPath, os.ModePerm); err != nil {
		return err
	}

	for _, f := range files {
		remoteFilePath := filepath.Join(remotePath, f.Name())
		localFilePath := filepath.Join(localPath, f.Name())

		if f.IsDir() {
			if err := recursiveDownload(
				sftpClient, remoteFilePath, localFilePath,
			); err != nil {
				return err
			}
		} else {
			if err := downloadFile(
				sftpClient, remoteFilePath, localFilePath,
			); err != nil {
				return err
			}
		}
	}

	return nil
}

func downloadFile(sftpClient *sftp.Client, remotePath, localPath string) error {
	remoteFile, err := sftpClient.Open(remotePath)
	if err != nil {
		return err
	}
	defer remoteFile.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, remoteFile); err != nil {
		return err
	}

	return nil
}
