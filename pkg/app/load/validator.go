package load

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deploymenttheory/go-tomboot/internal/boot"
	"github.com/deploymenttheory/go-tomboot/pkg/app"
)

// Validate checks the request before any image access
func (r *Request) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return err
	}

	if r.Policy != "" {
		if _, err := boot.ParsePolicy(r.Policy); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid --policy", err)
		}
	}

	if len(r.KernelName) > 12 {
		return app.NewError(app.ErrCodeInvalidInput,
			fmt.Sprintf("kernel name %q is not an 8.3 short name", r.KernelName), nil)
	}

	if r.OutPath != "" {
		dir := filepath.Dir(r.OutPath)
		info, err := os.Stat(dir)
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "output directory does not exist", err)
		}
		if !info.IsDir() {
			return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("%s is not a directory", dir), nil)
		}
	}
	return nil
}
