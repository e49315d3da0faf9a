package altarpicker

import (
	"fmt"
	"strings"

	maa "github.com/MaaXYZ/maa-framework-go/v4"

	"github.com/exilekit/altar-agent/altar"
)

const (
	colorInfo    = "#00bfff"
	colorChosen  = "#11cf00"
	colorWarning = "#ff7000"
)

// LogMXU pushes a message to the client log panel through the LogMXU node.
func LogMXU(ctx *maa.Context, content string) bool {
	override := map[string]any{
		"LogMXU": map[string]any{
			"focus": map[string]any{
				"Node.Action.Starting": strings.TrimLeft(content, " \t\r\n"),
			},
		},
	}
	ctx.RunTask("LogMXU", override)
	return true
}

func LogMXUColor(ctx *maa.Context, text, color string) bool {
	return LogMXU(ctx, spanHTML(text, color))
}

func spanHTML(text, color string) string {
	return fmt.Sprintf(`<span style="color: %s; font-weight: 500;">%s</span>`, color, text)
}

// decisionHTML renders the weights and outcome of one encounter.
func decisionHTML(d altar.Decision, r *altar.WeightResult) string {
	var b strings.Builder
	if r != nil {
		fmt.Fprintf(&b, `<div>Top: up %.2f / down %.2f = <b>%.2f</b></div>`, r.TopUpsideWeight, r.TopDownsideWeight, r.TopWeight)
		fmt.Fprintf(&b, `<div>Bottom: up %.2f / down %.2f = <b>%.2f</b></div>`, r.BottomUpsideWeight, r.BottomDownsideWeight, r.BottomWeight)
	}
	color := colorChosen
	if !d.Decided() {
		color = colorWarning
	}
	label := d.Outcome.String()
	if d.Reason != altar.ReasonNone {
		label += " (" + d.Reason.String() + ")"
	}
	b.WriteString(spanHTML(label, color))
	return b.String()
}
