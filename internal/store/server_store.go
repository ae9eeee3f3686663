package store

import "context"

// Server is a deploy target host reachable over SSH.
type Server struct {
	ServerID           int64
	ServerCredentialID *int64
	Name               string
	Hostname           string
	Workspace          string
	Description        string
	OSType             string
}

type ServerStore interface {
	CreateServer(context.Context, *int64, string, string, string, string, string) (*Server, error)
	ReadServerByID(context.Context, int64) (*Server, error)
	UpdateServer(context.Context, *Server) error
	DeleteServer(context.Context, int64) error
	ListServers(context.Context) ([]*Server, error)
}
