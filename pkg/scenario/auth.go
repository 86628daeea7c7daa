package scenario

import (
	"context"
	"time"

	"github.com/saturnines/gqlprobe/pkg/auth"
	"github.com/saturnines/gqlprobe/pkg/harness"
)

func preview(token string) string {
	if len(token) > 20 {
		return token[:20] + "..."
	}
	return token
}

// SignIn exchanges the configured username and token. signIn returns a
// scalar, so no fields are requested.
func SignIn(ctx context.Context, s *harness.Scenario) error {
	settings := s.Settings()

	if info, err := auth.InspectToken(settings.TestAuthToken); err == nil {
		s.Log("configured token",
			"username", info.Username,
			"issued_at", info.IssuedAt,
			"expired", info.Expired(time.Now()),
		)
	}

	resp, err := s.Execute(ctx, s.NewBuilder().
		MutationOperation("signIn").
		Argument("username", settings.TestUsername).
		Argument("authToken", settings.TestAuthToken).
		Scalar())
	if err != nil {
		return err
	}
	if err := s.AssertValid(resp); err != nil {
		return err
	}

	token, err := s.RequireString(resp, "data.signIn")
	if err != nil {
		return err
	}
	if token == "" {
		return mismatch("sign-in token", "a non-empty token", `""`)
	}
	s.Log("sign-in successful", "token", preview(token))
	return nil
}

// SignUp registers a generated account, so reruns never collide.
func SignUp(ctx context.Context, s *harness.Scenario) error {
	username := s.Data().Username()
	password := s.Data().Password()

	resp, err := s.Execute(ctx, s.NewBuilder().
		MutationOperation("signUp").
		Argument("username", username).
		Argument("password", password).
		Fields("username", "authToken"))
	if err != nil {
		return err
	}
	if err := s.AssertValid(resp); err != nil {
		return err
	}

	got, err := s.RequireString(resp, "data.signUp.username")
	if err != nil {
		return err
	}
	if got != username {
		return mismatch("username", username, got)
	}
	token, err := s.RequireString(resp, "data.signUp.authToken")
	if err != nil {
		return err
	}
	if token == "" {
		return mismatch("auth token", "a non-empty token", `""`)
	}

	s.Log("sign-up successful", "username", got, "token", preview(token))
	return nil
}
