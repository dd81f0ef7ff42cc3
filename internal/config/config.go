package config

import "time"

// Config is the root configuration for daylist.
type Config struct {
	Server ServerConfig `json:"server"`
	View   ViewConfig   `json:"view"`
	Sweep  SweepConfig  `json:"sweep"`
}

// ServerConfig holds the local web server settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ViewConfig holds rendering settings.
type ViewConfig struct {
	// OpenURLTTL bounds how long a blob URL issued for the "open" action
	// stays resolvable.
	OpenURLTTL Duration `json:"open_url_ttl,omitempty"`
}

// SweepConfig configures the orphaned-attachment sweep.
type SweepConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // 5-field cron expression
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
