package altarpicker

import (
	"fmt"
	"strings"

	maa "github.com/MaaXYZ/maa-framework-go/v4"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/exilekit/altar-agent/altar"
)

const (
	defaultConfigPath = "config/altar_agent.toml"
	// defaultSplitY is the panel midline at 720p.
	defaultSplitY = 360
)

// AltarInitAction - load config, catalog and weights
type AltarInitAction struct {
	svc *Service
}

func (a *AltarInitAction) Run(ctx *maa.Context, arg *maa.CustomActionArg) bool {
	log.Info().Msg("<Altar> ========== Init ==========")

	var params struct {
		Config string `json:"config"`
	}
	if arg.CustomActionParam != "" {
		if err := sonic.Unmarshal([]byte(arg.CustomActionParam), &params); err != nil {
			log.Error().Err(err).Str("param", arg.CustomActionParam).Msg("<Altar> Init: bad param")
			return false
		}
	}
	if params.Config == "" {
		params.Config = defaultConfigPath
	}

	if err := a.svc.Init(params.Config); err != nil {
		log.Error().Err(err).Str("config", params.Config).Msg("<Altar> Init failed")
		LogMXUColor(ctx, "Altar init failed: "+err.Error(), colorWarning)
		return false
	}
	LogMXUColor(ctx, "Altar weights loaded", colorInfo)
	return true
}

// AltarScanAction - read the OCR hits of the altar panel into the registry
type AltarScanAction struct {
	svc *Service
}

func (a *AltarScanAction) Run(ctx *maa.Context, arg *maa.CustomActionArg) bool {
	splitY, encType, err := parseScanParams(arg.CustomActionParam)
	if err != nil {
		log.Error().Err(err).Str("param", arg.CustomActionParam).Msg("<Altar> Scan: bad param")
		return false
	}

	lines := ocrLines(arg)
	added, visible := a.svc.Ingest(lines, encType, splitY)
	log.Debug().Int("lines", len(lines)).Bool("visible", visible).Bool("added", added).
		Msg("<Altar> Scan")
	if added {
		LogMXUColor(ctx, "New altar detected", colorInfo)
	}
	return true
}

// parseScanParams reads {"split_y": 360, "type": "exarch"}; both keys are
// optional.
func parseScanParams(raw string) (splitY int, encType altar.EncounterType, err error) {
	var params struct {
		SplitY int    `json:"split_y"`
		Type   string `json:"type"`
	}
	if raw != "" {
		if err := sonic.Unmarshal([]byte(raw), &params); err != nil {
			return 0, altar.EncounterUnknown, fmt.Errorf("parse scan param: %w", err)
		}
	}
	splitY = params.SplitY
	if splitY <= 0 {
		splitY = defaultSplitY
	}
	if params.Type != "" {
		var ok bool
		if encType, ok = parseEncounterType(params.Type); !ok {
			return 0, altar.EncounterUnknown, fmt.Errorf("parse scan param: unknown altar type %q", params.Type)
		}
	}
	return splitY, encType, nil
}

// ocrLines prefers filtered results and falls back to all of them.
func ocrLines(arg *maa.CustomActionArg) []ocrLine {
	if arg.RecognitionDetail == nil || arg.RecognitionDetail.Results == nil {
		return nil
	}
	results := arg.RecognitionDetail.Results.Filtered
	if len(results) == 0 {
		results = arg.RecognitionDetail.Results.All
	}
	lines := make([]ocrLine, 0, len(results))
	for _, res := range results {
		ocr, ok := res.AsOCR()
		if !ok {
			continue
		}
		lines = append(lines, ocrLine{Text: ocr.Text, Box: ocr.Box})
	}
	return lines
}

// AltarDecideAction - evaluate pending encounters and click the chosen option
type AltarDecideAction struct {
	svc *Service
}

func (a *AltarDecideAction) Run(ctx *maa.Context, arg *maa.CustomActionArg) bool {
	click := func(h *screenHandle) bool {
		x, y := h.Center()
		log.Info().Int("cx", x).Int("cy", y).Msg("<Altar> Decide: click")
		b := h.box
		// click centre with a small box
		target := [4]int{b.X() + b.Width()/4, b.Y() + b.Height()/4, max(b.Width()/2, 1), max(b.Height()/2, 1)}
		ctx.RunTask("NodeClick", map[string]any{
			"NodeClick": map[string]any{
				"action": map[string]any{
					"param": map[string]any{
						"target": target,
					},
				},
			},
		})
		return true
	}
	report := func(p pick) {
		log.Info().Str("id", p.Encounter.ID).Str("top", describe(p.Encounter.Top)).
			Str("bottom", describe(p.Encounter.Bottom)).Stringer("outcome", p.Decision.Outcome).
			Stringer("reason", p.Decision.Reason).Msg("<Altar> Decide")
		LogMXU(ctx, decisionHTML(p.Decision, p.Weights))
	}
	a.svc.Consume(click, report)
	return true
}

// AltarFinishAction - stop the watcher and print a summary
type AltarFinishAction struct {
	svc *Service
}

func (a *AltarFinishAction) Run(ctx *maa.Context, arg *maa.CustomActionArg) bool {
	var active int
	if e := a.svc.Engine(); e != nil {
		active = e.ActiveCount()
	}
	a.svc.Close()
	log.Info().Int("active", active).Msg("<Altar> ========== Finish ==========")
	LogMXUColor(ctx, fmt.Sprintf("Altar picker stopped, %d encounter(s) dropped", active), colorChosen)
	return true
}

// describe renders a side for debug logs.
func describe(s *altar.Side) string {
	if s == nil {
		return "<nil>"
	}
	var parts []string
	for _, id := range s.Upsides.Filled() {
		parts = append(parts, "+"+id)
	}
	for _, id := range s.Downsides.Filled() {
		parts = append(parts, "-"+id)
	}
	return strings.Join(parts, " ")
}
