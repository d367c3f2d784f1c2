package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	theme "github.com/goliatone/go-theme"
	"goa.design/clue/log"
	"gopkg.in/yaml.v3"

	widgetflow "github.com/goliatone/go-widgetflow"
	"github.com/goliatone/go-widgetflow/internal/telemetry"
	"github.com/goliatone/go-widgetflow/pkg/bus"
	"github.com/goliatone/go-widgetflow/pkg/engine"
	"github.com/goliatone/go-widgetflow/pkg/session"
	"github.com/goliatone/go-widgetflow/pkg/surface/tui"
	"github.com/goliatone/go-widgetflow/pkg/transport"
	"github.com/goliatone/go-widgetflow/pkg/widgets"
)

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-url ws://host/ws | -script file.yaml] [flags]\n\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		flag.PrintDefaults()
	}
	var (
		urlF     = flag.String("url", "", "websocket endpoint of the conversation backend")
		scriptF  = flag.String("script", "", "YAML script of inbound messages to replay offline")
		widgetsF = flag.String("widgets", "", "directory of widget registry overrides (.yaml/.json)")
		variantF = flag.String("theme-variant", "", "terminal theme variant (dark)")
		natsF    = flag.String("nats", "", "NATS URL for lifecycle events (in-memory when empty)")
		confirmF = flag.Bool("confirm", false, "require batch confirmation for scripted items")
		debugF   = flag.Bool("debug", false, "enable debug logs")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *debugF {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := run(ctx, config{
		url:     *urlF,
		script:  *scriptF,
		widgets: *widgetsF,
		variant: *variantF,
		natsURL: *natsF,
		confirm: *confirmF,
	}); err != nil {
		log.Errorf(ctx, err, "widgetctl failed")
		os.Exit(1)
	}
}

type config struct {
	url     string
	script  string
	widgets string
	variant string
	natsURL string
	confirm bool
}

func run(ctx context.Context, cfg config) error {
	if (cfg.url == "") == (cfg.script == "") {
		return errors.New("exactly one of -url or -script is required")
	}

	logger := telemetry.NewClueLogger()

	registry := widgets.NewRegistry()
	if cfg.widgets != "" {
		if err := widgets.LoadFS(os.DirFS(cfg.widgets), registry); err != nil {
			return err
		}
	}

	events, err := openBus(ctx, cfg.natsURL)
	if err != nil {
		return err
	}
	defer events.Close()

	options := []widgetflow.Option{
		widgetflow.WithSessionOptions(
			session.WithLogger(logger),
			session.WithEngineOptions(
				engine.WithRegistry(registry),
				engine.WithMetrics(telemetry.NewOTelMetrics()),
				engine.WithPublisher(events),
			),
		),
		widgetflow.WithSurfaceOptions(
			tui.WithRegistry(registry),
			tui.WithThemeSelection(terminalTheme(cfg.variant)),
		),
		widgetflow.WithClientOptions(transport.WithLogger(logger)),
	}

	if cfg.script != "" {
		return replay(ctx, cfg, os.Stdout, options)
	}

	term, err := widgetflow.Connect(ctx, cfg.url, options...)
	if err != nil {
		return err
	}
	defer term.Close()
	log.Info(ctx, log.KV{K: "msg", V: "connected"}, log.KV{K: "url", V: cfg.url})
	return term.Run(ctx)
}

// openBus returns a NATS bus when url is set. Otherwise events stay in
// process and are logged at debug level.
func openBus(ctx context.Context, url string) (bus.Bus, error) {
	if url != "" {
		return bus.NewNATSBus(bus.Config{URL: url, Name: "widgetctl"})
	}
	mem := bus.NewMemoryBus()
	if _, err := mem.Subscribe(ctx, engine.SubjectPrefix+">", func(msg *bus.Message) {
		log.Debug(ctx, log.KV{K: "msg", V: "lifecycle event"}, log.KV{K: "subject", V: msg.Subject}, log.KV{K: "data", V: string(msg.Data)})
	}); err != nil {
		return nil, err
	}
	return mem, nil
}

func terminalTheme(variant string) *theme.Selection {
	manifest := &theme.Manifest{
		Name:    "widgetctl",
		Version: "1.0.0",
		Tokens: map[string]string{
			tui.TokenInfoPrefix:      "",
			tui.TokenErrorPrefix:     "! ",
			tui.TokenEchoPrefix:      "you: ",
			tui.TokenAssistantPrefix: "assistant: ",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					tui.TokenEchoPrefix:      "\x1b[36myou:\x1b[0m ",
					tui.TokenErrorPrefix:     "\x1b[31m!\x1b[0m ",
					tui.TokenAssistantPrefix: "\x1b[35massistant:\x1b[0m ",
				},
			},
		},
	}
	return &theme.Selection{Theme: manifest.Name, Variant: variant, Manifest: manifest}
}

// scriptStep is one inbound message in an offline script.
type scriptStep struct {
	Type      string         `yaml:"type"`
	MessageID string         `yaml:"messageId"`
	Content   *string        `yaml:"content"`
	Payload   map[string]any `yaml:"payload"`
}

// replay feeds a scripted conversation through the terminal. Outbound traffic
// is printed to out instead of sent.
func replay(ctx context.Context, cfg config, out io.Writer, options []widgetflow.Option) error {
	raw, err := os.ReadFile(cfg.script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	var steps []scriptStep
	if err := yaml.Unmarshal(raw, &steps); err != nil {
		return fmt.Errorf("parse script %s: %w", cfg.script, err)
	}

	term, err := widgetflow.NewTerminal(printTransport{out: out}, options...)
	if err != nil {
		return err
	}

	for i, step := range steps {
		msg := transport.Inbound{Type: step.Type, MessageID: step.MessageID, Content: step.Content}
		if step.Payload != nil {
			payload, err := json.Marshal(step.Payload)
			if err != nil {
				return fmt.Errorf("step %d: encode payload: %w", i, err)
			}
			msg.Payload = payload
		}
		if msg.Type == transport.InboundRenderWidget {
			if err := transport.ValidateRenderPayload(msg.Payload); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if itemID, _ := step.Payload["itemId"].(string); itemID != "" && cfg.confirm {
				term.Session.Engine().SetItem(itemID, true)
			}
		}
		if err := term.Session.Handle(ctx, msg); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := term.Surface.Drain(ctx, term.Session); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			return err
		}
	}
	return nil
}

// printTransport writes outbound envelopes as JSON lines.
type printTransport struct {
	out io.Writer
}

func (p printTransport) SubmitWidgetResponse(_ context.Context, itemID, widgetID, widgetType string, response any) error {
	return p.print(transport.Outbound{
		Type:       transport.OutboundWidgetResponse,
		ItemID:     itemID,
		WidgetID:   widgetID,
		WidgetType: widgetType,
		Response:   response,
	})
}

func (p printTransport) SubmitBatchResponse(_ context.Context, itemID string, responses map[string]transport.BatchEntry) error {
	return p.print(transport.Outbound{
		Type:      transport.OutboundBatchResponse,
		ItemID:    itemID,
		Responses: responses,
	})
}

func (p printTransport) SendMessage(_ context.Context, text string) error {
	return p.print(transport.Outbound{Type: transport.OutboundUserMessage, Text: text})
}

func (p printTransport) print(msg transport.Outbound) error {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, string(encoded))
	return err
}
