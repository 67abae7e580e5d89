package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// ErrAuth marks credential acquisition and client construction failures.
// The orchestrator aborts the whole cycle on these and retries on the next
// tick.
var ErrAuth = errors.New("storage authentication failed")

// Credential is short-lived access material for the object store. It is
// consumed by exactly one client construction; callers must not cache it.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expires         time.Time // zero when the source does not report expiry
}

// CredentialProvider obtains a credential valid for one client's immediate
// use. No minimum validity beyond that may be assumed.
type CredentialProvider interface {
	Obtain(ctx context.Context) (Credential, error)
}

// StaticCredentials serves a fixed key pair from configuration.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (p StaticCredentials) Obtain(ctx context.Context) (Credential, error) {
	if p.AccessKeyID == "" || p.SecretAccessKey == "" {
		return Credential{}, fmt.Errorf("%w: static credentials not configured", ErrAuth)
	}
	return Credential{
		AccessKeyID:     p.AccessKeyID,
		SecretAccessKey: p.SecretAccessKey,
	}, nil
}

// SharedFileCredentials re-reads the AWS shared credentials file on every
// call. An external process rotates the file with short-lived keys, so the
// parse must happen at the moment of use, never at startup.
type SharedFileCredentials struct {
	Profile string
	// Filename overrides the default ~/.aws/credentials location.
	Filename string
}

func (p SharedFileCredentials) Obtain(ctx context.Context) (Credential, error) {
	profile := p.Profile
	if profile == "" {
		profile = "default"
	}
	var optFns []func(*awsconfig.LoadSharedConfigOptions)
	if p.Filename != "" {
		optFns = append(optFns, func(o *awsconfig.LoadSharedConfigOptions) {
			o.CredentialsFiles = []string{p.Filename}
			o.ConfigFiles = []string{}
		})
	}
	sc, err := awsconfig.LoadSharedConfigProfile(ctx, profile, optFns...)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: load shared profile %q: %v", ErrAuth, profile, err)
	}
	if !sc.Credentials.HasKeys() {
		return Credential{}, fmt.Errorf("%w: shared profile %q has no keys", ErrAuth, profile)
	}
	cred := Credential{
		AccessKeyID:     sc.Credentials.AccessKeyID,
		SecretAccessKey: sc.Credentials.SecretAccessKey,
		SessionToken:    sc.Credentials.SessionToken,
	}
	if sc.Credentials.CanExpire {
		cred.Expires = sc.Credentials.Expires
	}
	return cred, nil
}
