package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/endotrack/internal/identity"
)

func RunTokenCommand(secret string, userID string, appID string, ttl time.Duration, out io.Writer) error {
	token, err := identity.BuildToken([]byte(secret), userID, appID, ttl, time.Now())
	if err != nil {
		return fmt.Errorf("build token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
