package logging

import (
	"fmt"
	"io"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/spf13/viper"
)

// NewGelfWriter connects a GELF writer to the configured Graylog endpoint.
// Returns nil without error when Graylog shipping is disabled.
func NewGelfWriter() (io.WriteCloser, error) {
	if !viper.GetBool("graylog.enabled") {
		return nil, nil
	}
	addr := viper.GetString("graylog.address")
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connecting GELF writer to %s: %w", addr, err)
	}
	return w, nil
}
