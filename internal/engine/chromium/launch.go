package chromium

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"github.com/bytedance/sonic"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/lourivaldantas/whatsapp-shell/internal/engine"
)

//go:embed assets/userstyle.css
var userStyle string

// blankApp opens the app window empty so handlers are in place before the
// application URL is requested.
const blankApp = "about:blank"

// initialPreferences seeds a fresh profile. Existing profiles are left alone.
var initialPreferences = map[string]any{
	"browser": map[string]any{
		"enable_spellchecking": false,
	},
	"spellcheck": map[string]any{
		"use_spelling_service": false,
	},
}

// newLauncher builds the Chromium command line for an app-mode window.
func newLauncher(opts engine.Options) *launcher.Launcher {
	g := opts.Geometry.Normalize()

	l := launcher.New().
		Headless(opts.Headless).
		UserDataDir(opts.DataDir).
		Set(flags.Flag("app"), blankApp).
		Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", g.Width, g.Height)).
		Set(flags.Flag("window-position"), fmt.Sprintf("%d,%d", g.X, g.Y)).
		Set(flags.Flag("ignore-gpu-blocklist")).
		Set(flags.Flag("enable-gpu-rasterization")).
		Delete(flags.Flag("no-startup-window")).
		Delete(flags.Flag("enable-automation"))

	if opts.UserAgent != "" {
		l = l.Set(flags.Flag("user-agent"), opts.UserAgent)
	}
	if g.IsMaximized {
		l = l.Set(flags.Flag("start-maximized"))
	}
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	return l
}

// seedPreferences writes the initial profile preferences if the profile is new.
func seedPreferences(dataDir string) error {
	path := filepath.Join(dataDir, "Default", "Preferences")
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	data, err := sonic.Marshal(initialPreferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// styleScript wraps css in a script that adds it to the top frame only.
func styleScript(css string) (string, error) {
	literal, err := sonic.MarshalString(css)
	if err != nil {
		return "", fmt.Errorf("failed to encode stylesheet: %w", err)
	}

	return fmt.Sprintf(`(() => {
	if (window.top !== window) return;
	const css = %s;
	const apply = () => {
		const style = document.createElement("style");
		style.textContent = css;
		(document.head || document.documentElement).appendChild(style);
	};
	if (document.readyState === "loading") {
		document.addEventListener("DOMContentLoaded", apply, { once: true });
	} else {
		apply();
	}
})();`, literal), nil
}

// mediaBinding is the window function pages use to ask for camera and
// microphone access.
const mediaBinding = "__whatsappShellMedia"

// mediaScript wraps getUserMedia so every request is answered by the shell
// first. A "denied" answer rejects the way a refused native prompt does;
// anything else falls through to Chromium.
func mediaScript(binding string) (string, error) {
	name, err := sonic.MarshalString(binding)
	if err != nil {
		return "", fmt.Errorf("failed to encode binding name: %w", err)
	}

	return fmt.Sprintf(`(() => {
	const media = navigator.mediaDevices;
	if (!media || typeof media.getUserMedia !== "function") return;
	const original = media.getUserMedia.bind(media);
	media.getUserMedia = async (constraints) => {
		const kinds = [];
		if (constraints && constraints.audio) kinds.push("microphone");
		if (constraints && constraints.video) kinds.push("camera");
		const ask = window[%s];
		if (typeof ask === "function" && kinds.length > 0) {
			let answer = "prompt";
			try {
				answer = await ask({ origin: location.origin, kinds });
			} catch (e) {}
			if (answer === "denied") {
				throw new DOMException("Permission denied", "NotAllowedError");
			}
		}
		return original(constraints);
	};
})();`, name), nil
}

// answerMedia turns a page's media request into a setting name for
// mediaScript. Unknown kinds are dropped; a request left with none is
// answered "prompt" without consulting decide.
func answerMedia(req gson.JSON, fallbackOrigin string, decide func(origin string, kinds []string) engine.PermissionSetting) string {
	var origin string
	if o := req.Get("origin"); !o.Nil() {
		origin = o.Str()
	}
	// Opaque origins serialize as "null"
	if origin == "" || origin == "null" {
		origin = fallbackOrigin
	}

	var kinds []string
	for _, k := range req.Get("kinds").Arr() {
		kind := k.Str()
		if slices.Contains(permissionKinds, kind) && !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	if decide == nil || len(kinds) == 0 {
		return engine.PermissionPrompt.String()
	}
	return decide(origin, kinds).String()
}

// allowRequest reports whether a paused request may continue. Only main
// frame documents are put to navigate, with the URL exactly as requested.
func allowRequest(e *proto.FetchRequestPaused, mainFrame proto.PageFrameID, navigate func(uri string) bool) bool {
	if navigate == nil || e.Request == nil {
		return true
	}
	if e.ResourceType != proto.NetworkResourceTypeDocument || e.FrameID != mainFrame {
		return true
	}
	return navigate(e.Request.URL + e.Request.URLFragment)
}

// originOf returns scheme://host of raw
func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func permissionSetting(s engine.PermissionSetting) proto.BrowserPermissionSetting {
	switch s {
	case engine.PermissionGranted:
		return proto.BrowserPermissionSettingGranted
	case engine.PermissionDenied:
		return proto.BrowserPermissionSettingDenied
	default:
		return proto.BrowserPermissionSettingPrompt
	}
}

// loadFailed reports whether a failed request is a real main frame failure
// rather than a cancelled or deliberately suppressed navigation.
func loadFailed(e *proto.NetworkLoadingFailed) bool {
	if e.Type != proto.NetworkResourceTypeDocument {
		return false
	}
	return !e.Canceled && e.BlockedReason == "" && e.ErrorText != "net::ERR_ABORTED"
}
