package server

// User holds the SSH login name and private key path for command execution.
type User struct {
	Name   string
	SSHKey string
}
