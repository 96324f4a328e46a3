package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"pocsagtx/internal/fsk"
	"pocsagtx/internal/journal"
	"pocsagtx/internal/logging"
	"pocsagtx/internal/metrics"
	"pocsagtx/internal/mqttsource"
	"pocsagtx/internal/page"
	"pocsagtx/internal/pocsag"
)

// readChunkSize is the size of each read from the input stream
const readChunkSize = 4096

// Application represents the main application
type Application struct {
	config     Config
	logger     *logrus.Logger
	params     fsk.Params
	sink       fsk.Sink
	logRotator *logging.LogRotator
	journal    *journal.Writer
	metrics    *metrics.Metrics
	mqtt       *mqttsource.Source
	input      io.ReadCloser
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config:  config,
		logger:  logger,
		params:  config.RadioParams(),
		metrics: metrics.New(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start runs the application. Pages given as args are sent once and the
// application exits; otherwise lines are read from the input and MQTT
// until the input ends or a shutdown signal arrives.
func (app *Application) Start(args []string) error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting POCSAG transmitter")

	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initializeComponents(len(args) == 0); err != nil {
		app.shutdown()
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer app.shutdown()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			app.logger.Info("Received shutdown signal")
			app.cancel()
		case <-app.ctx.Done():
		}
	}()

	app.startBackground()

	if len(args) > 0 {
		return app.sendLines(app.ctx, args)
	}

	var input io.Reader
	if app.input != nil {
		input = app.input
	}
	return app.Run(app.ctx, input)
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents(withSources bool) error {
	var err error
	app.sink, err = openSink(app.config.Output, app.config.Format, app.params, app.logger)
	if err != nil {
		return err
	}

	if app.config.LogDir != "" {
		app.logRotator, err = logging.NewLogRotator(app.config.LogDir, logging.DefaultPrefix, app.config.LogRotateUTC, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize log rotator: %w", err)
		}
		app.journal = journal.NewWriter(app.logRotator, app.logger)

		if app.config.LogRetention > 0 {
			removed, err := app.logRotator.Cleanup(app.config.LogRetention)
			if err != nil {
				app.logger.WithError(err).Warn("Failed to clean up old journal files")
			} else if removed > 0 {
				app.logger.WithField("removed", removed).Info("Removed old journal files")
			}
		}
	}

	if !withSources {
		return nil
	}

	if app.config.Input != "" {
		app.input, err = openInput(app.config.Input)
		if err != nil {
			return err
		}
	}

	if app.config.MQTT.Enabled() {
		app.mqtt, err = mqttsource.New(app.config.MQTT, app.logger)
		if err != nil {
			return fmt.Errorf("failed to create mqtt source: %w", err)
		}
		if err := app.mqtt.Connect(); err != nil {
			return err
		}
	}

	return nil
}

// openSink opens the transmitter for the configured format. Audio plays on
// the sound device and ignores the output path.
func openSink(output, formatName string, params fsk.Params, logger *logrus.Logger) (fsk.Sink, error) {
	format, err := fsk.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	if format == fsk.FormatAudio {
		tx, err := fsk.NewAudioSink(params, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure audio transmitter: %w", err)
		}
		return tx, nil
	}

	out, err := fsk.OpenOutput(output)
	if err != nil {
		return nil, err
	}
	tx, err := fsk.NewTransmitter(out, format, params, logger)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to configure transmitter: %w", err)
	}
	return tx, nil
}

// openInput opens the line source; "-" is stdin
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return f, nil
}

// startBackground starts log rotation and the metrics server
func (app *Application) startBackground() {
	if app.logRotator != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.logRotator.Start(app.ctx)
		}()
	}

	if app.config.MetricsAddr != "" {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.metrics.Serve(app.ctx, app.config.MetricsAddr, app.logger); err != nil {
				app.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}
}

// Run transmits every page read from input and from the MQTT source.
// It returns when ctx is done, or when input reaches EOF and no MQTT
// source is configured.
func (app *Application) Run(ctx context.Context, input io.Reader) error {
	requests := make(chan *page.Request, 16)

	var producers sync.WaitGroup
	if input != nil {
		producers.Add(1)
		go func() {
			defer producers.Done()
			app.readInput(ctx, input, requests)
		}()
	}
	if app.mqtt != nil {
		producers.Add(1)
		go func() {
			defer producers.Done()
			app.readMQTT(ctx, requests)
		}()
	}
	go func() {
		producers.Wait()
		close(requests)
	}()

	// Pages go out one at a time, there is only one transmitter
	for {
		select {
		case <-ctx.Done():
			app.logger.Info("Page processing stopped")
			return nil
		case req, ok := <-requests:
			if !ok {
				app.logger.Info("Input finished")
				return nil
			}
			if err := app.Transmit(ctx, req); err != nil {
				app.logger.WithError(err).WithField("id", req.ID).Error("Page transmission failed")
			}
		}
	}
}

// readInput feeds the input stream through a line decoder until EOF
func (app *Application) readInput(ctx context.Context, input io.Reader, requests chan<- *page.Request) {
	decoder := page.NewDecoder(app.config.ParseOptions(), page.DefaultMaxLineLength, app.logger)
	buf := make([]byte, readChunkSize)

	for {
		n, err := input.Read(buf)
		if n > 0 {
			reqs, errs := decoder.Decode(buf[:n])
			for _, e := range errs {
				app.rejectLine(e)
			}
			if !app.enqueue(ctx, requests, reqs...) {
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				app.logger.WithError(err).Error("Input read failed")
			}
			req, ferr := decoder.Flush()
			if ferr != nil {
				app.rejectLine(ferr)
			} else if req != nil {
				app.enqueue(ctx, requests, req)
			}
			return
		}
	}
}

// readMQTT parses lines received from the broker until ctx is done
func (app *Application) readMQTT(ctx context.Context, requests chan<- *page.Request) {
	opts := app.config.ParseOptions()
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-app.mqtt.Lines():
			req, err := page.ParseLine(line, opts)
			if err != nil {
				app.rejectLine(err)
				continue
			}
			if !app.enqueue(ctx, requests, req) {
				return
			}
		}
	}
}

func (app *Application) enqueue(ctx context.Context, requests chan<- *page.Request, reqs ...*page.Request) bool {
	for _, req := range reqs {
		select {
		case requests <- req:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// sendLines parses and transmits pages given on the command line
func (app *Application) sendLines(ctx context.Context, lines []string) error {
	opts := app.config.ParseOptions()

	var errs []error
	for _, line := range lines {
		req, err := page.ParseLine(line, opts)
		if err != nil {
			app.rejectLine(err)
			errs = append(errs, err)
			continue
		}
		if err := app.Transmit(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Transmit encodes a page with all its repeats and hands it to the transmitter
func (app *Application) Transmit(ctx context.Context, req *page.Request) error {
	msg := req.PocsagMessage()
	words := pocsag.EncodeRepeats(msg, app.config.Repeats)
	airTime := app.params.AirTime(len(words))

	entry := app.logger.WithFields(logrus.Fields{
		"id":       req.ID,
		"address":  req.Address,
		"function": req.Function,
		"mode":     req.Mode.String(),
		"repeats":  app.config.Repeats,
		"words":    len(words),
		"air_time": airTime.Round(time.Millisecond),
	})
	entry.Info("Transmitting page")

	if err := app.sink.Transmit(ctx, words); err != nil {
		app.metrics.TransmitFailed()
		return fmt.Errorf("failed to transmit page %s: %w", req.ID, err)
	}

	app.metrics.PageSent(req.Mode.String(), len(words), airTime)

	if app.journal != nil {
		err := app.journal.WritePage(journal.Record{
			ID:       req.ID,
			Time:     time.Now(),
			Address:  req.Address,
			Function: req.Function,
			Mode:     req.Mode.String(),
			Repeats:  app.config.Repeats,
			Words:    len(words),
			Message:  req.Message,
		})
		if err != nil {
			entry.WithError(err).Warn("Failed to write journal")
		}
	}

	entry.Debug("Page transmitted")
	return nil
}

// rejectLine logs and counts a line that will not be transmitted
func (app *Application) rejectLine(err error) {
	reason := metrics.ReasonMalformed
	switch {
	case errors.Is(err, page.ErrInvalidAddress):
		reason = metrics.ReasonAddress
	case errors.Is(err, page.ErrMessageTooLong):
		reason = metrics.ReasonTooLong
	case errors.Is(err, page.ErrLineTooLong):
		reason = metrics.ReasonOverflow
	}

	app.metrics.LineRejected(reason)
	app.logger.WithError(err).WithField("reason", reason).Warn("Malformed line")
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	if app.mqtt != nil {
		app.mqtt.Close()
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Debug("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.sink != nil {
		if err := app.sink.Close(); err != nil {
			app.logger.WithError(err).Error("Failed to close transmitter")
		}
	}
	if app.input != nil && app.input != os.Stdin {
		app.input.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}

	app.logger.Info("Shutdown completed")
}
