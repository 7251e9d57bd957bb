package remote

import (
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// ClientOptions describe how to reach and authenticate against one host.
type ClientOptions struct {
	Addr           string // host:port
	User           string
	KeyPath        string // private key file, preferred when set
	Password       string // fallback auth, resolved by the caller
	KnownHostsPath string // empty means no host-key verification
	ConnectTimeout time.Duration
}

// ResilienceConfig bundles the retry and circuit-breaker policy applied
// to session creation and command execution.
type ResilienceConfig struct {
	BackoffSettings *backoff.ExponentialBackOff
	CircuitBreaker  *gobreaker.CircuitBreaker
}

// ResilientClient is an *ssh.Client plus the resilience policy used when
// opening sessions on it.
type ResilientClient struct {
	SSHClient *ssh.Client
	ResConf   *ResilienceConfig
}

func (c *ResilientClient) Close() error {
	return c.SSHClient.Close()
}

// Dial connects to opts.Addr and wraps the client with the default
// resilience policy.
func Dial(opts ClientOptions) (*ResilientClient, error) {
	auth, err := authMethods(opts)
	if err != nil {
		return nil, err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if opts.KnownHostsPath != "" {
		hostKeyCallback, err = knownhosts.New(opts.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts %s: %w", opts.KnownHostsPath, err)
		}
	}

	timeout := opts.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	config := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
		BannerCallback:  func(message string) error { return nil }, //ignore banner
	}

	client, err := ssh.Dial("tcp", opts.Addr, config)
	if err != nil {
		return nil, &ConnectionError{Addr: opts.Addr, Err: err}
	}

	cbs := gobreaker.Settings{
		Name:        "ssh-" + opts.Addr,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &ResilientClient{
		SSHClient: client,
		ResConf: &ResilienceConfig{
			BackoffSettings: &backoff.ExponentialBackOff{
				InitialInterval:     500 * time.Millisecond,
				MaxInterval:         5 * time.Second,
				MaxElapsedTime:      30 * time.Second,
				Multiplier:          1.5,
				RandomizationFactor: 0.5,
				Stop:                backoff.Stop,
				Clock:               backoff.SystemClock,
			},
			CircuitBreaker: gobreaker.NewCircuitBreaker(cbs),
		},
	}, nil
}

func authMethods(opts ClientOptions) ([]ssh.AuthMethod, error) {
	var auth []ssh.AuthMethod
	if opts.KeyPath != "" {
		m, err := publicKeyAuth(opts.KeyPath)
		if err != nil {
			return nil, err
		}
		auth = append(auth, m)
	}
	if opts.Password != "" {
		auth = append(auth, ssh.Password(opts.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no auth method for %s: key path and password both empty", opts.Addr)
	}
	return auth, nil
}

func publicKeyAuth(privateKeyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}
