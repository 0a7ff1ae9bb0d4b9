package commands

import (
	"context"
	"fmt"
	"io"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	"github.com/sharecrm-io/fxcrm/pkg/fxclient"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// session is a configured client plus whatever needs closing after the command.
type session struct {
	Client fxcrm.Client
	Logger fxcrm.Logger
	conn   *nats.Conn
}

// Close drains the event connection, if any.
func (s *session) Close() {
	if s.conn != nil {
		_ = s.conn.Drain()
	}
}

// newSession builds a client from the configuration file, FXCRM_*
// variables and persistent flags.
func newSession(ctx context.Context, stderr io.Writer) (*session, error) {
	config := loadConfig()

	err := resolveSecret(config, stderr)
	if err != nil {
		return nil, err
	}

	fxConfig, err := buildClientConfig(config, stderr)
	if err != nil {
		return nil, err
	}

	sess := &session{Logger: fxConfig.Logger}

	if config.NATSURL != "" {
		conn, err := nats.Connect(config.NATSURL, nats.Name("fxcrm-cli"))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", config.NATSURL, err)
		}

		subject := config.NATSSubject
		if subject == "" {
			subject = constants.DefaultNATSSubject
		}

		fxConfig.Interceptors.AddResponseInterceptor(fxcrm.EventInterceptor(conn, subject, fxConfig.Logger))
		sess.conn = conn
	}

	client, err := fxclient.New(ctx, fxConfig)
	if err != nil {
		sess.Close()

		return nil, err
	}

	sess.Client = client

	return sess, nil
}

// buildClientConfig maps the CLI configuration onto fxcrm.Config.
func buildClientConfig(config *Config, stderr io.Writer) (*fxcrm.Config, error) {
	if config.AppID == "" || config.AppSecret == "" || config.PermanentCode == "" {
		return nil, constants.ErrNoCredentials
	}

	fxConfig := &fxcrm.Config{
		AppID:         config.AppID,
		AppSecret:     config.AppSecret,
		PermanentCode: config.PermanentCode,
		OpenUserID:    config.OpenUserID,
		APIRoot:       config.APIRoot,
		AuthRoot:      config.AuthRoot,
		APIVersion:    config.APIVersion,
		Timeout:       viper.GetDuration("timeout"),
		Debug:         viper.GetBool("debug"),
		DebugWriter:   stderr,
		Logger:        NewStderrLogger(stderr, viper.GetBool("verbose")),
		Interceptors:  fxcrm.NewInterceptorChain(),
	}

	proxies := map[string]string{}
	if config.HTTPProxy != "" {
		proxies["http"] = config.HTTPProxy
	}

	if config.HTTPSProxy != "" {
		proxies["https"] = config.HTTPSProxy
	}

	if len(proxies) > 0 {
		fxConfig.Proxies = proxies
	}

	return fxConfig, nil
}

// resolveSecret prompts for a missing app secret when stdin is a terminal.
func resolveSecret(config *Config, stderr io.Writer) error {
	if config.AppSecret != "" || config.AppID == "" {
		return nil
	}

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return constants.ErrSecretPromptNoTTY
	}

	_, _ = fmt.Fprint(stderr, "App secret: ")

	secret, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(stderr)

	if err != nil {
		return fmt.Errorf("failed to read app secret: %w", err)
	}

	config.AppSecret = string(secret)

	return nil
}

func requireOpenUserID(config *Config) error {
	if config.OpenUserID == "" {
		return constants.ErrNoOpenUserID
	}

	return nil
}
