package domain

import (
	"fmt"
	"strconv"
)

// Source identifies one MongoDB database subject to backup and restore.
type Source struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       string
}

// Address returns the host:port pair handed to the dump and restore tools.
func (s Source) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// HasCredentials reports whether both username and password are set.
func (s Source) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}

func (s Source) String() string {
	return fmt.Sprintf("%s@%s", s.DB, s.Address())
}

// Store describes the remote bucket archives are written to. The fields
// after Encrypt only apply to the gcs, gdrive and local providers.
type Store struct {
	Provider      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	Endpoint      string
	Destination   string
	Encrypt       bool
	RetryAttempts int

	ProjectID       string
	CredentialsFile string
	FolderID        string
	Path            string
}
