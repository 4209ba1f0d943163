package source

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
)

// Options configures the default loader
type Options struct {
	// ContentRoot backs file:// addresses; empty disables them
	ContentRoot string
	MaxBytes    int64
	// Client backs http(s) addresses; nil disables them
	Client *httpclient.Client
	// Static serves every other address
	Static *loader.Static
	Logger *zap.Logger
}

// Default wires the file, HTTP and static loaders by scheme
func Default(opts Options) (*loader.Router, error) {
	logger := logging.OrNop(opts.Logger)
	r := loader.NewRouter()

	if opts.ContentRoot != "" {
		files, err := NewFile(opts.ContentRoot, opts.MaxBytes, logger)
		if err != nil {
			return nil, err
		}
		if err := r.Handle("file://**", files); err != nil {
			return nil, err
		}
	}

	if opts.Client != nil {
		remote := NewHTTP(opts.Client, logger)
		for _, pattern := range []string{"http://**", "https://**"} {
			if err := r.Handle(pattern, remote); err != nil {
				return nil, err
			}
		}
	}

	static := opts.Static
	if static == nil {
		static = loader.NewStatic(nil)
	}
	r.Fallback(static)

	return r, nil
}
