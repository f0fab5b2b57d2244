package git

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docsync/internal/config"
)

// authMethod converts source credentials into a go-git transport auth method.
// A nil or "none" config yields nil (anonymous access).
func authMethod(a *config.AuthConfig) (transport.AuthMethod, error) {
	if a.IsZero() {
		return nil, nil
	}
	switch a.Type {
	case config.AuthTypeToken:
		if a.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		user := a.Username
		if user == "" {
			user = "token"
		}
		return &http.BasicAuth{Username: user, Password: a.Token}, nil
	case config.AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{Username: a.Username, Password: a.Password}, nil
	case config.AuthTypeSSH:
		keyPath := a.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		user := a.Username
		if user == "" {
			user = "git"
		}
		keys, err := ssh.NewPublicKeysFromFile(user, keyPath, a.Password)
		if err != nil {
			return nil, fmt.Errorf("load ssh key %s: %w", keyPath, err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", a.Type)
	}
}
