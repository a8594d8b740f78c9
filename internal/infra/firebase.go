// README: Firebase ID token verification; tokens carry the caller's role and verification claims.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Custom claims set on ridepool users by the identity backend.
const (
	ClaimRole         = "role"
	ClaimVerification = "verification"
)

type FirebaseToken struct {
	UID    string
	Claims map[string]interface{}
}

// Claim returns a string custom claim, or "" when it is missing or not a string.
func (t *FirebaseToken) Claim(key string) string {
	if t == nil {
		return ""
	}
	if v, ok := t.Claims[key].(string); ok {
		return v
	}
	return ""
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

type FirebaseOptions struct {
	ProjectID string
	// CredentialsFile is a service-account JSON path; empty uses application
	// default credentials.
	CredentialsFile string
}

func NewFirebaseApp(ctx context.Context, opts FirebaseOptions) (*firebase.App, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app for project %s: %w", opts.ProjectID, err)
	}
	return app, nil
}

type firebaseVerifier struct {
	client       *auth.Client
	checkRevoked bool
}

// NewFirebaseVerifier verifies ID tokens issued for app. With checkRevoked set,
// tokens revoked after issue are rejected too, e.g. for a user whose
// verification was withdrawn. That costs one extra lookup per request.
func NewFirebaseVerifier(ctx context.Context, app *firebase.App, checkRevoked bool) (TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &firebaseVerifier{client: client, checkRevoked: checkRevoked}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	var (
		token *auth.Token
		err   error
	)
	if v.checkRevoked {
		token, err = v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	} else {
		token, err = v.client.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		return nil, err
	}
	return &FirebaseToken{UID: token.UID, Claims: token.Claims}, nil
}
