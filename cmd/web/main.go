package main

import (
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tomz197/chainbreaker/internal/config"
)

//go:embed index.html
var htmlPage string

var pageTmpl = template.Must(template.New("index").Parse(htmlPage))

// pageData fills the landing page.
type pageData struct {
	SSHHost string
	SSHPort string
}

// SSHCommand is the connect line shown to visitors.
func (d pageData) SSHCommand() string {
	if d.SSHPort == "" || d.SSHPort == "22" {
		return "ssh " + d.SSHHost
	}
	return fmt.Sprintf("ssh -p %s %s", d.SSHPort, d.SSHHost)
}

func newHandler(data pageData, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, data); err != nil {
			logger.Error("render page", "err", err)
		}
	})
	return mux
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	data := pageData{SSHHost: cfg.SSHDisplayHost, SSHPort: cfg.SSHPort}
	addr := net.JoinHostPort(cfg.WebHost, cfg.WebPort)
	logger.Info("starting web server", "url", "http://"+addr)
	if err := http.ListenAndServe(addr, newHandler(data, logger)); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
