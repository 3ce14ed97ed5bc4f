// Package credentials resolves NASA Earthdata login credentials for
// authenticated downloads from the PO.DAAC archive.
package credentials

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	usernameVar = "EARTHDATA_USERNAME"
	passwordVar = "EARTHDATA_PASSWORD"
)

// Credentials holds an Earthdata login username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Load reads Earthdata credentials from the environment, first merging in
// variables from a .env file at the given path when one exists. Pass an
// empty path to use ".env" in the working directory. A missing .env file
// is not an error; missing variables are.
func Load(envPath string) (Credentials, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Credentials{}, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	creds := Credentials{
		Username: os.Getenv(usernameVar),
		Password: os.Getenv(passwordVar),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("earthdata credentials not set: export %s and %s or add them to %s", usernameVar, passwordVar, envPath)
	}
	return creds, nil
}
