package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"gamelib/internal/config"
	"gamelib/internal/gog"
	"gamelib/internal/services"
	"gamelib/internal/storefront"
)

const remoteTimeout = 15 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSteam fetches the owned-games list to confirm the API key and account id.
func CheckSteam(ctx context.Context, cfg *config.Config) Result {
	const name = "Steam"
	if err := cfg.RequireSteam(); err != nil {
		return Result{Name: name, Skipped: true, Detail: "credentials not configured"}
	}
	client, err := storefront.SteamClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	owned, err := client.OwnedGames(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d games owned", len(owned))}
}

// CheckGOG validates whichever GOG source would be used: the session token
// when set, otherwise the configured export file.
func CheckGOG(ctx context.Context, cfg *config.Config) Result {
	const name = "GOG"
	if cfg.RequireGOG() == nil {
		client, err := gog.New(cfg.GOG.SessionToken, cfg.GOG.BaseURL, gog.WithTimeout(cfg.GOGTimeout()))
		if err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
		checkCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
		defer cancel()
		pages, err := client.Products(checkCtx)
		if err != nil {
			return Result{Name: name, Detail: summarizeRemoteError(err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("session valid (%d products)", len(gog.Listings(pages)))}
	}
	if path := strings.TrimSpace(cfg.GOG.ExportPath); path != "" {
		pages, err := gog.LoadExport(path)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("export %s unreadable", path)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("export %s (%d products)", path, len(gog.Listings(pages)))}
	}
	return Result{Name: name, Skipped: true, Detail: "no session token or export file"}
}

func summarizeRemoteError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, services.ErrConfiguration):
		return "rejected credentials"
	case errors.Is(err, services.ErrExternal), errors.Is(err, services.ErrTransient):
		return "unreachable: " + err.Error()
	default:
		return err.Error()
	}
}
