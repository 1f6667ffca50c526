package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"chromakey/config"
	"chromakey/serve"
	"chromakey/util"
	"chromakey/video/layer"
	"chromakey/video/render"
	"chromakey/video/sink"
	"chromakey/video/source"
)

var (
	configPath = flag.String("config", "", "Path to a JSON configuration file. Built-in defaults when empty.")
	port       = flag.Int("port", 0, "Port to host web frontend. Overrides the configuration.")
	capture    = flag.String("capture", "", "Capture device index or URI. Overrides the configuration.")
	fps        = flag.Int("fps", 0, "Render rate. Overrides the configuration.")
	window     = flag.Bool("window", false, "Also show the output in a local window.")
	record     = flag.String("record", "", "Also record the output to this video file (requires ffmpeg).")
	verbose    = flag.Bool("v", false, "Enable debug logging.")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *capture != "" {
		cfg.Capture = *capture
	}
	if *fps != 0 {
		cfg.FPS = *fps
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var layers []layer.Layer
	for _, lc := range cfg.Layers {
		o := source.NewOverlay(lc.SourcePath(cfg.OverlayDir))
		defer o.Close()
		layers = append(layers, layer.Layer{
			ID:      lc.ID,
			Source:  o,
			Window:  lc.Window(),
			Enabled: lc.Enabled,
		})
	}
	set, err := layer.NewSet(layers...)
	if err != nil {
		log.Fatalf("Invalid layers: %v", err)
	}
	set.AddListener(render.EnabledGauge)
	for _, l := range set.States() {
		render.EnabledGauge.LayerChanged(l)
	}

	mjpegServer := sink.NewMJPEGServer()
	output, err := mjpegServer.NewStream(sink.DefaultStream)
	if err != nil {
		log.Fatalf("Failed to create output stream: %v", err)
	}
	display := sink.Multi{output}
	if *window {
		display = append(display, sink.NewWindow("chromakey"))
	}
	if *record != "" {
		ffmpegp, err := util.LocateFFmpeg()
		if err != nil {
			fmt.Println("Unable to locate ffmpeg binary", err)
			fmt.Println("Either ensure the ffmpeg binary is in $PATH,")
			fmt.Println("or set the FFMPEG environment variable.")
			os.Exit(1)
		}
		log.Printf("Located ffmpeg binary, %v", ffmpegp)
		display = append(display, &sink.Lazy{New: func(size image.Point) (sink.Sink, error) {
			return sink.NewFFmpegSink(*record, sink.FFmpegOptions{Binary: ffmpegp, Size: size, FPS: cfg.FPS})
		}})
	}
	defer display.Close()

	cam := source.NewCapture(cfg.Capture)
	defer cam.Close()

	mux := http.NewServeMux()
	mux.Handle("/mjpeg", mjpegServer)
	mux.Handle("/layers", &serve.LayerServer{Layers: set})
	mux.Handle("/layersws", serve.NewLayerUpdater(set))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/", serve.NewUI())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handlers.CombinedLoggingHandler(log.StandardLogger().Writer(), mux),
	}
	go func() {
		log.Infof("Hosting web frontend on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Web frontend failed: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		select {
		case <-cam.Ready():
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
			log.Warnf("Still waiting for capture %v", cfg.Capture)
		}
	}()

	ticker := render.NewTicker(cfg.FPS)
	defer ticker.Stop()
	loop := render.NewLoop(cam, set, display)
	if err := loop.Run(ctx, ticker); err != nil {
		log.Fatalf("Camera access failed: %v", err)
	}

	shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	srv.Shutdown(shutdown)
}
