package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/normacomex/normabot/pkg/audio/portaudio"
	"github.com/normacomex/normabot/pkg/cli"
	"github.com/normacomex/normabot/pkg/voicecall"
)

// CallRequest configures a voice call. It can be loaded with -f.
type CallRequest struct {
	Language     string `yaml:"language" json:"language"`
	Voice        string `yaml:"voice" json:"voice"`
	Model        string `yaml:"model" json:"model"`
	Transport    string `yaml:"transport" json:"transport"`
	InputDevice  string `yaml:"input_device" json:"input_device"`
	OutputDevice string `yaml:"output_device" json:"output_device"`
	GraceDelayMs int    `yaml:"grace_delay_ms" json:"grace_delay_ms"`
}

var callReq CallRequest

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Real-time voice call with NormaBot",
	Long: `Talk to NormaBot over the default microphone and speakers.

The call starts immediately. Commands typed while the call runs:
  /mute          toggle the microphone
  /hangup        end the call
  /call          start a new call (also retries after an error)
  /lang es|en    choose the language for the next call
  /exit          hang up and quit

Examples:
  normabot call
  normabot call --lang en --voice Puck
  normabot call -f call.yaml --input-device "USB Microphone"`,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callReq.Language, "lang", "", "conversation language: es or en (default: context language or es)")
	callCmd.Flags().StringVar(&callReq.Voice, "voice", "", "prebuilt voice (default: context default_voice or Kore)")
	callCmd.Flags().StringVar(&callReq.Model, "model", "", "Live model (default: context model)")
	callCmd.Flags().StringVar(&callReq.Transport, "transport", "", "Live transport: websocket or sdk")
	callCmd.Flags().StringVar(&callReq.InputDevice, "input-device", "", "input device name (default: system default)")
	callCmd.Flags().StringVar(&callReq.OutputDevice, "output-device", "", "output device name (default: system default)")
	callCmd.Flags().IntVar(&callReq.GraceDelayMs, "grace-ms", 0, "delay before the microphone opens after connecting")
}

// resolveCallRequest merges the request file, the context and the flags.
// Flags win over the file, and the file wins over the context.
func resolveCallRequest(cmd *cobra.Command, ctx *cli.Context) (CallRequest, error) {
	req := CallRequest{
		Language:  ctx.GetExtra(cli.ExtraLanguage),
		Voice:     ctx.DefaultVoice,
		Model:     ctx.Model,
		Transport: ctx.GetExtra(cli.ExtraTransport),
	}
	if inputFile != "" {
		var file CallRequest
		if err := loadRequest(inputFile, &file); err != nil {
			return req, err
		}
		mergeCallRequest(&req, file)
	}
	var flags CallRequest
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("lang", &flags.Language, callReq.Language)
	set("voice", &flags.Voice, callReq.Voice)
	set("model", &flags.Model, callReq.Model)
	set("transport", &flags.Transport, callReq.Transport)
	set("input-device", &flags.InputDevice, callReq.InputDevice)
	set("output-device", &flags.OutputDevice, callReq.OutputDevice)
	if cmd.Flags().Changed("grace-ms") {
		flags.GraceDelayMs = callReq.GraceDelayMs
	}
	mergeCallRequest(&req, flags)
	return req, nil
}

func mergeCallRequest(dst *CallRequest, src CallRequest) {
	for _, f := range []struct {
		d *string
		s string
	}{
		{&dst.Language, src.Language},
		{&dst.Voice, src.Voice},
		{&dst.Model, src.Model},
		{&dst.Transport, src.Transport},
		{&dst.InputDevice, src.InputDevice},
		{&dst.OutputDevice, src.OutputDevice},
	} {
		if f.s != "" {
			*f.d = f.s
		}
	}
	if src.GraceDelayMs > 0 {
		dst.GraceDelayMs = src.GraceDelayMs
	}
}

func callDevices(req CallRequest) voicecall.Devices {
	d := voicecall.Devices{
		Capture:  portaudio.NewCaptureDevice,
		Playback: portaudio.NewPlaybackDevice,
	}
	if name := req.InputDevice; name != "" {
		d.Capture = func() voicecall.CaptureDevice { return portaudio.NewNamedCaptureDevice(name) }
	}
	if name := req.OutputDevice; name != "" {
		d.Playback = func() voicecall.PlaybackDevice { return portaudio.NewNamedPlaybackDevice(name) }
	}
	return d
}

func runCall(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}
	req, err := resolveCallRequest(cmd, ctx)
	if err != nil {
		return err
	}
	lang, err := voicecall.ParseLanguage(req.Language)
	if err != nil {
		return err
	}
	client, err := createLiveClient(ctx, req.Transport)
	if err != nil {
		return err
	}
	printVerbose("Using context: %s, transport: %s", ctx.Name, client.Transport())

	// Logs go to the screen's log section while the call runs.
	logs := cli.NewLogWriter(64)
	prevLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: logLevel()})))
	defer slog.SetDefault(prevLogger)

	var opts []voicecall.Option
	if req.Voice != "" {
		opts = append(opts, voicecall.WithVoice(req.Voice))
	}
	if req.Model != "" {
		opts = append(opts, voicecall.WithModel(req.Model))
	}
	if req.GraceDelayMs > 0 {
		opts = append(opts, voicecall.WithGraceDelay(time.Duration(req.GraceDelayMs)*time.Millisecond))
	}
	ctrl := voicecall.NewController(client, callDevices(req), opts...)
	defer ctrl.Close()

	screen := newCallScreen(logs, lang)
	cancelSub := ctrl.Subscribe(screen.update)
	defer cancelSub()

	// Each call gets its own context so a hangup also aborts a pending
	// connect.
	cctx := cmd.Context()
	var (
		wg         sync.WaitGroup
		cancelCall context.CancelFunc = func() {}
	)
	defer wg.Wait()
	startCall := func() {
		callCtx, cancel := context.WithCancel(cctx)
		cancelCall()
		cancelCall = cancel
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ctrl.Start(callCtx, screen.language())
			if err != nil && !errors.Is(err, voicecall.ErrCanceled) {
				slog.Debug("call start failed", "error", err)
			}
		}()
	}
	hangup := func() {
		cancelCall()
		ctrl.Disconnect()
	}
	defer hangup()

	screen.update(ctrl.Snapshot())
	startCall()

	inputCtx, stopInput := context.WithCancel(cctx)
	defer stopInput()
	lines := readLines(inputCtx, os.Stdin)

	for {
		var input string
		select {
		case <-cctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			input = l
		}

		fields := strings.Fields(input)
		if len(fields) == 0 {
			screen.update(ctrl.Snapshot())
			continue
		}
		switch fields[0] {
		case "/mute":
			muted, err := ctrl.ToggleMute()
			if err != nil {
				screen.notice("No hay una llamada activa.")
				continue
			}
			if muted {
				screen.notice("Micrófono silenciado.")
			} else {
				screen.notice("Micrófono activo.")
			}
		case "/hangup":
			hangup()
		case "/call", "/retry":
			if ctrl.Snapshot().Status.Active() {
				screen.notice("Ya hay una llamada en curso.")
				continue
			}
			startCall()
		case "/lang":
			if len(fields) < 2 {
				screen.notice("Uso: /lang es|en")
				continue
			}
			l, err := voicecall.ParseLanguage(fields[1])
			if err != nil {
				screen.notice(err.Error())
				continue
			}
			screen.setLanguage(l)
			if ctrl.Snapshot().Status.Active() {
				screen.notice("El idioma se aplicará en la próxima llamada.")
			} else {
				screen.update(ctrl.Snapshot())
			}
		case "/exit", "/quit":
			return nil
		default:
			screen.notice("Comando desconocido: " + fields[0])
		}
	}
}

// readLines streams trimmed lines from r until r ends or ctx is done. The
// channel is closed when the reader goroutine exits.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// callScreen redraws the call frame on every state change.
type callScreen struct {
	logs   *cli.LogWriter
	styles cli.Styles

	mu    sync.Mutex
	lang  voicecall.Language
	last  voicecall.CallSession
	extra string
}

func newCallScreen(logs *cli.LogWriter, lang voicecall.Language) *callScreen {
	return &callScreen{logs: logs, styles: cli.NewStyles(cli.DefaultTheme), lang: lang}
}

func (s *callScreen) language() voicecall.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

func (s *callScreen) setLanguage(l voicecall.Language) {
	s.mu.Lock()
	s.lang = l
	s.mu.Unlock()
}

func (s *callScreen) notice(msg string) {
	s.mu.Lock()
	s.extra = msg
	last := s.last
	s.mu.Unlock()
	s.update(last)
}

func (s *callScreen) update(cs voicecall.CallSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = cs
	frame := cli.Frame{
		Styles: s.styles,
		Title:  "NormaBot",
		Status: cs.Headline(),
		Sections: []cli.Section{
			{Label: " Llamada ", Content: func() []string { return s.callLines(cs) }},
			{Label: " Registro ", Content: s.logs.Lines},
		},
		Help: "/mute  /hangup  /call  /lang es|en  /exit",
	}
	fmt.Print("\n" + frame.Render(72, 20) + "\n> ")
}

func (s *callScreen) callLines(cs voicecall.CallSession) []string {
	lang := s.lang
	if cs.Status.Active() {
		lang = cs.Language
	}
	lines := []string{cs.Detail(), "Idioma: " + lang.DisplayName()}
	switch cs.Status {
	case voicecall.StatusConnected:
		mic := "en espera"
		switch {
		case cs.Muted:
			mic = s.styles.Alert.Render("silenciado")
		case cs.StreamingEnabled:
			mic = "activo"
		}
		lines = append(lines,
			"Micrófono: "+mic,
			"Duración: "+cli.FormatElapsed(time.Since(cs.ConnectedAt)))
	case voicecall.StatusError:
		lines = append(lines, s.styles.Alert.Render(cs.ErrorMessage))
	}
	if s.extra != "" {
		lines = append(lines, s.styles.Accent.Render(s.extra))
		s.extra = ""
	}
	return lines
}
