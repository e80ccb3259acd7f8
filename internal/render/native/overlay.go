package native

import (
	"fmt"
	"runtime"
	"unicode/utf8"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	barHeight        = 40
	prompt           = "> "
	overlayFontSize  = 20
	overlayPadding   = 8
	maxLinesOnScreen = 14
	lineHeight       = overlayFontSize + 4
	maxLineLen       = 200
	// stats text is refreshed every statsInterval frames.
	statsInterval = 30
)

var (
	barColor     = rl.NewColor(40, 40, 40, 255)
	barLineColor = rl.NewColor(80, 80, 80, 255)
	logBgColor   = rl.NewColor(24, 24, 24, 240)
)

// overlay is the in-window command bar plus the FPS and heap counters.
// ESC toggles the bar; while it is open it owns the keyboard.
type overlay struct {
	open  bool
	input string

	// submit receives every entered line. It runs in its own goroutine.
	submit func(line string)
	// lines returns the log shown above the bar, oldest first.
	lines func() []string

	showStats bool
	frames    uint32
	fpsText   string
	memText   string
	mem       runtime.MemStats
}

func (o *overlay) update() {
	if rl.IsKeyPressed(rl.KeyEscape) && o.submit != nil {
		o.open = !o.open
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		o.showStats = !o.showStats
	}
	if !o.open {
		return
	}
	if rl.IsKeyPressed(rl.KeyV) && (rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl) ||
		rl.IsKeyDown(rl.KeyLeftSuper) || rl.IsKeyDown(rl.KeyRightSuper)) {
		o.input += rl.GetClipboardText()
	} else {
		for c := rl.GetCharPressed(); c != 0; c = rl.GetCharPressed() {
			o.input += string(rune(c))
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(o.input) > 0 {
		_, size := utf8.DecodeLastRuneInString(o.input)
		o.input = o.input[:len(o.input)-size]
	}
	if (rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter)) && o.input != "" {
		line := o.input
		o.input = ""
		go o.submit(line)
	}
}

// draw renders the 2D layer. Call after EndMode3D.
func (o *overlay) draw() {
	if o.showStats {
		o.drawStats()
	}
	if !o.open {
		return
	}
	screenW := rl.GetScreenWidth()
	barY := rl.GetScreenHeight() - barHeight

	logHeight := maxLinesOnScreen * lineHeight
	logY := barY - logHeight
	if logY < 0 {
		logHeight, logY = barY, 0
	}
	if logHeight > 0 {
		rl.DrawRectangle(0, int32(logY), int32(screenW), int32(logHeight), logBgColor)
	}
	var lines []string
	if o.lines != nil {
		lines = o.lines()
	}
	if len(lines) > maxLinesOnScreen {
		lines = lines[len(lines)-maxLinesOnScreen:]
	}
	for i, line := range lines {
		if len(line) > maxLineLen {
			line = line[:maxLineLen-3] + "..."
		}
		y := logY + i*lineHeight + overlayPadding
		rl.DrawText(line, overlayPadding, int32(y), overlayFontSize, rl.LightGray)
	}

	rl.DrawRectangle(0, int32(barY), int32(screenW), barHeight, barColor)
	rl.DrawRectangle(0, int32(barY), int32(screenW), 1, barLineColor)
	rl.DrawText(prompt+o.input+"|", overlayPadding, int32(barY+overlayPadding), overlayFontSize, rl.White)
}

func (o *overlay) drawStats() {
	o.frames++
	if o.frames%statsInterval == 0 || o.fpsText == "" {
		runtime.ReadMemStats(&o.mem)
		o.fpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
		o.memText = fmt.Sprintf("Mem: %.2f MiB", float64(o.mem.Alloc)/(1024*1024))
	}
	screenW := int32(rl.GetScreenWidth())
	y := int32(overlayPadding)
	for _, text := range []string{o.fpsText, o.memText} {
		w := rl.MeasureText(text, overlayFontSize)
		rl.DrawText(text, screenW-w-overlayPadding, y, overlayFontSize, rl.Green)
		y += lineHeight
	}
}
