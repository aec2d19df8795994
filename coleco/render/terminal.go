package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/tanagra/coleco"
	"github.com/tanagra/coleco/input"
	"github.com/tanagra/coleco/timing"
	"github.com/tanagra/coleco/vdp"
)

const (
	scale = 1

	gameAreaWidth  = vdp.FrameWidth * scale
	gameAreaHeight = vdp.FrameHeight * scale
	panelLines     = 10
	minTermWidth   = gameAreaWidth + 30
	minTermHeight  = gameAreaHeight + 2
)

// shadeChars approximates a five-level grayscale in a monospace cell,
// darkest first.
var shadeChars = []rune{' ', '░', '▒', '▓', '█'}

// TerminalRenderer drives a Console at its region's frame rate (60 Hz NTSC,
// 50 Hz PAL) and paints its
// framebuffer into a tcell screen as shaded character cells, alongside a
// side panel of frame/channel status and recent log lines.
type TerminalRenderer struct {
	screen    tcell.Screen
	console   *coleco.Console
	keys      *KeyState
	running   bool
	logBuffer *LogBuffer
}

// NewTerminalRenderer wires a terminal UI to console, forwarding key events
// into keys (the same KeyState console's Config.Poller was built from).
func NewTerminalRenderer(console *coleco.Console, keys *KeyState) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	logBuffer := NewLogBuffer(100)
	slog.SetDefault(slog.New(NewLogBufferHandler(logBuffer, slog.LevelDebug)))

	return &TerminalRenderer{
		screen:    screen,
		console:   console,
		keys:      keys,
		running:   true,
		logBuffer: logBuffer,
	}, nil
}

// Run starts the render/input loop; it blocks until the user quits or the
// process receives a termination signal.
func (t *TerminalRenderer) Run() error {
	defer t.screen.Fini()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	go t.handleInput()

	limiter := timing.NewTickerLimiter(t.console.FrameRate())
	defer limiter.Stop()

	frameDone := make(chan struct{}, 1)
	go func() {
		for t.running {
			limiter.WaitForNextFrame()
			frameDone <- struct{}{}
		}
	}()

	for t.running {
		select {
		case <-frameDone:
			t.console.RunFrame()
			t.render()
			t.screen.Show()
		case <-signals:
			t.running = false
			return nil
		}
	}
	return nil
}

func (t *TerminalRenderer) handleInput() {
	for t.running {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				t.running = false
				return
			case tcell.KeyEnter:
				t.keys.Press(0, input.FireR)
			case tcell.KeyUp:
				t.keys.Press(0, input.Up)
			case tcell.KeyDown:
				t.keys.Press(0, input.Down)
			case tcell.KeyLeft:
				t.keys.Press(0, input.Left)
			case tcell.KeyRight:
				t.keys.Press(0, input.Right)
			case tcell.KeyRune:
				switch r := ev.Rune(); {
				case r >= '0' && r <= '9':
					t.keys.Press(0, input.NumpadDigit[r-'0'])
				case r == '*':
					t.keys.Press(0, input.Star)
				case r == '#':
					t.keys.Press(0, input.Pound)
				case r == 'm':
					t.console.ToggleChannel(coleco.ChannelPSGTone0)
				case r == 'q':
					t.running = false
					return
				}
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *TerminalRenderer) render() {
	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	t.screen.Clear()
	t.drawScreen()
	t.drawPanel(termWidth, termHeight)
}

func (t *TerminalRenderer) drawScreen() {
	fb := t.console.FrameBuffer()
	pixels := fb.Pixels()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for y := 0; y < vdp.FrameHeight; y++ {
		for x := 0; x < vdp.FrameWidth; x++ {
			px := pixels[y*vdp.FrameWidth+x]
			ch := shadeChars[shadeIndex(px)]
			t.screen.SetContent(x*scale, y*scale, ch, nil, style)
		}
	}
}

// shadeIndex buckets an ARGB8888 pixel's luminance into one of five shade
// levels for monochrome terminal display.
func shadeIndex(px uint32) int {
	r := (px >> 16) & 0xFF
	g := (px >> 8) & 0xFF
	b := px & 0xFF
	luma := (r*3 + g*6 + b) / 10
	return int(luma * 4 / 255)
}

func (t *TerminalRenderer) drawPanel(termWidth, termHeight int) {
	startX := gameAreaWidth + 2
	if startX >= termWidth {
		return
	}

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	t.drawText(startX, 0, termWidth, " Console ", headerStyle)

	status := t.console.ChannelStatus()
	lines := []string{
		fmt.Sprintf("Frame: %d", t.console.FrameCount()),
		fmt.Sprintf("PSG samples: %d", t.console.PSGSampleCount()),
		fmt.Sprintf("SGM samples: %d", t.console.SGMSampleCount()),
		fmt.Sprintf("Channels: %s", channelSummary(status)),
		"",
		"Arrows/Enter: joystick  0-9/*/#: numpad",
		"m: mute PSG tone0  q/Esc: quit",
	}
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	for i, line := range lines {
		if 1+i >= panelLines || 1+i >= termHeight {
			break
		}
		t.drawText(startX, 1+i, termWidth, line, infoStyle)
	}

	logStartY := panelLines + 1
	logStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)

	available := termHeight - logStartY
	if available <= 0 {
		return
	}
	for i, entry := range t.logBuffer.GetRecent(available) {
		style := logStyle
		switch entry.Level {
		case slog.LevelWarn:
			style = warnStyle
		case slog.LevelError:
			style = errStyle
		}
		t.drawText(startX, logStartY+i, termWidth, FormatLogEntry(entry), style)
	}
}

func (t *TerminalRenderer) drawText(x, y, termWidth int, text string, style tcell.Style) {
	maxWidth := termWidth - x - 1
	if maxWidth <= 0 {
		return
	}
	if len(text) > maxWidth {
		text = text[:maxWidth]
	}
	cx := x
	for _, ch := range text {
		if cx >= termWidth {
			break
		}
		t.screen.SetContent(cx, y, ch, nil, style)
		cx++
	}
}

func channelSummary(status [7]bool) string {
	labels := []string{"T0", "T1", "T2", "N", "S0", "S1", "S2"}
	out := ""
	for i, on := range status {
		if !on {
			out += "!" + labels[i] + " "
		}
	}
	if out == "" {
		return "all on"
	}
	return out
}

