package types

import (
	errs "errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/oliverisaac/goli"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ListenAddr      string
	Hostname        string
	DBPath          string
	ServiceKey      string
	JWTSecret       []byte
	JWTIssuer       string
	VapidPublicKey  string
	VapidPrivateKey string
	VapidSubscriber string
	DefaultURL      string
	SendTimeout     time.Duration
	PushTTL         int
	MaxParallel     int
}

// StoreConfigured reports whether a database was configured. Without one the
// registry and dispatch routes answer 503.
func (c Config) StoreConfigured() bool {
	return c.DBPath != ""
}

func (c Config) VapidConfigured() bool {
	return c.VapidPublicKey != "" && c.VapidPrivateKey != ""
}

func ConfigFromEnv() (Config, error) {
	ret := Config{}
	var retErr error
	var err error

	ret.ListenAddr = goli.DefaultEnv("PUSH_LISTEN_ADDR", ":8080")
	ret.Hostname = goli.DefaultEnv("PUSH_HOSTNAME", "localhost")
	ret.DefaultURL = goli.DefaultEnv("PUSH_DEFAULT_URL", "/")

	ret.DBPath = os.Getenv("PUSH_DB_PATH")
	if ret.DBPath == "" {
		logrus.Warn("PUSH_DB_PATH is not set, subscription and dispatch routes will be unavailable")
	} else if _, err := os.Stat(path.Dir(ret.DBPath)); err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "Directory for PUSH_DB_PATH must exist"))
	}

	ret.ServiceKey = os.Getenv("PUSH_SERVICE_KEY")
	if ret.ServiceKey == "" {
		logrus.Warn("PUSH_SERVICE_KEY is not set, dispatch will be unavailable")
	}

	if secret := os.Getenv("PUSH_JWT_SECRET"); secret != "" {
		ret.JWTSecret = []byte(secret)
	} else {
		logrus.Warn("PUSH_JWT_SECRET is not set, user routes will be unavailable")
	}
	ret.JWTIssuer = os.Getenv("PUSH_JWT_ISSUER")

	ret.VapidPublicKey = os.Getenv("VAPID_PUBLIC_KEY")
	ret.VapidPrivateKey = os.Getenv("VAPID_PRIVATE_KEY")
	if (ret.VapidPublicKey == "") != (ret.VapidPrivateKey == "") {
		retErr = errs.Join(retErr, fmt.Errorf("You must define both VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY, or neither"))
	}
	ret.VapidSubscriber = goli.DefaultEnv("VAPID_SUBSCRIBER", fmt.Sprintf("mailto:admin@%s", ret.Hostname))

	ret.SendTimeout, err = time.ParseDuration(goli.DefaultEnv("PUSH_SEND_TIMEOUT", "10s"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing PUSH_SEND_TIMEOUT"))
	} else if ret.SendTimeout <= 0 {
		retErr = errs.Join(retErr, fmt.Errorf("PUSH_SEND_TIMEOUT must be positive"))
	}

	ret.PushTTL, err = strconv.Atoi(goli.DefaultEnv("PUSH_TTL", "86400"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing PUSH_TTL"))
	}

	ret.MaxParallel, err = strconv.Atoi(goli.DefaultEnv("PUSH_MAX_PARALLEL", "16"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing PUSH_MAX_PARALLEL"))
	} else if ret.MaxParallel < 0 {
		retErr = errs.Join(retErr, fmt.Errorf("PUSH_MAX_PARALLEL cannot be negative"))
	}

	return ret, retErr
}
