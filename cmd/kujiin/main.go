package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/takeru/kujiin/internal/app"
	"github.com/takeru/kujiin/internal/config"
	"github.com/takeru/kujiin/internal/jutsu"
	"github.com/takeru/kujiin/internal/seal"
	"github.com/takeru/kujiin/internal/server"
	"github.com/takeru/kujiin/internal/store"
	"github.com/takeru/kujiin/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Kujiin - Hand Seal Recognition")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dataDir = filepath.Join(homeDir, ".kujiin")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if cfg.EffectDir == "" {
		cfg.EffectDir = filepath.Join(dataDir, "effects")
	}

	st, err := store.New(filepath.Join(dataDir, "kujiin.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a, err := app.New(app.Config{Conf: cfg, Store: st})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := a.DiscoverEffects(); err != nil {
		log.Printf("Effect discovery failed: %v", err)
	} else {
		log.Printf("Discovered %d effect pack(s)", len(a.Effects().List()))
	}

	// Train from whatever samples are already stored. A fresh install has
	// none and runs untrained until the first /api/train.
	if _, err := a.TrainFromStore(); err != nil {
		log.Printf("No classifier yet: %v", err)
	}

	webDir := cfg.StaticDir
	if webDir == "" {
		webDir = findWebDir(dataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Conf:      cfg,
		Store:     st,
		Camera:    a.Camera(),
		App:       a,
	})

	a.RestoreEnabled()
	if err := a.Start(); err != nil {
		log.Printf("Pipeline not started: %v", err)
	}
	defer a.Stop()

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *headless {
		select {}
	}

	runTray(a, cfg.ListenAddr)
}

// runTray wires the app into the system tray and blocks until quit.
func runTray(a *app.App, addr string) {
	t := tray.New()

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		if !enabled {
			a.Reset()
		}
	})
	t.OnReset(func() {
		a.Reset()
	})
	t.OnSettings(func() {
		openBrowser("http://localhost" + addr)
	})
	t.OnQuit(func() {
		a.Stop()
	})

	a.OnSealEvent(func(ev seal.Event) {
		t.SetLastSeal(ev.Label.Display())
	})
	a.OnCompletion(func(c jutsu.Completion) {
		t.SetLastJutsu(c.Display)
	})

	t.Run()
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	webDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(webDir); err == nil && info.IsDir() {
		return webDir
	}

	return ""
}
