// Command trmdemo renders fixed-length WAV files that exercise the voc
// package's articulator surface. It is pure ambient plumbing: CLI parsing
// and file I/O live here so the core (transient/glottis/tract/voc) stays
// free of both.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pinktrombone/trmgo/voc"
)

const (
	sampleRate   = 44100.0
	durationSecs = 5.0
)

// CLI mirrors the handful of demo scenes the original Rust driver renders
// from main(), one kong command per scene.
type CLI struct {
	Sustain       SustainCmd       `cmd:"" help:"Render a sustained vowel at a fixed pitch."`
	TongueIndex   TongueIndexCmd   `cmd:"" help:"Sweep the tongue position across the blade-to-lip range."`
	TongueDiam    TongueDiamCmd    `cmd:"" help:"Sweep the tongue constriction diameter at a fixed position."`
	ThroatAndLips ThroatAndLipsCmd `cmd:"" help:"Sweep the throat and lip diameters independently."`
	Nasal         NasalCmd         `cmd:"" help:"Close the lips and open the velum, as in a sustained /m/."`
	Plosive       PlosiveCmd       `cmd:"" help:"Close then reopen the lips, producing a transient burst."`
	Out           string           `short:"o" help:"Output directory for the rendered WAV file." default:"."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("trmdemo"),
		kong.Description("Renders demo WAV files from the coupled glottis/tract voice model."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Out); err != nil {
		fmt.Fprintf(os.Stderr, "trmdemo: %v\n", err)
		os.Exit(1)
	}
}

// render runs update once per block for durationSecs seconds and writes the
// resulting mono stream to filename as a 32-bit integer PCM WAV, matching the
// channel and format choices of the reference driver's WAV writer.
func render(outDir, filename string, cfg voc.Config, update func(v *voc.Voc, block int)) error {
	v, err := voc.New(cfg)
	if err != nil {
		return fmt.Errorf("trmdemo: %w", err)
	}

	path := outDir + string(os.PathSeparator) + filename
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trmdemo: creating %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(cfg.SampleRate), 32, 1, 1)
	defer enc.Close()

	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: int(cfg.SampleRate)},
	}

	totalBlocks := int(durationSecs*cfg.SampleRate) / cfg.Chunk
	for block := 0; block < totalBlocks; block++ {
		update(v, block)
		chunk := v.PlayChunk()
		buf.Data = buf.Data[:0]
		for _, s := range chunk {
			buf.Data = append(buf.Data, int(s*math.MaxInt32))
		}
		buf.SourceBitDepth = 32
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("trmdemo: writing %s: %w", path, err)
		}
	}
	return nil
}

func baseConfig() voc.Config {
	cfg := voc.Defaults()
	cfg.DefaultFreq = 160
	return cfg
}

// SustainCmd renders a held vowel at a fixed frequency and tenseness.
type SustainCmd struct {
	Freq      float64 `help:"Fundamental frequency in Hz." default:"160"`
	Tenseness float64 `help:"Glottal tenseness in [0,1]." default:"0.6"`
}

func (c *SustainCmd) Run(outDir *string) error {
	cfg := baseConfig()
	cfg.DefaultFreq = c.Freq
	cfg.DefaultTenseness = c.Tenseness
	return render(*outDir, "sustain.wav", cfg, func(v *voc.Voc, block int) {})
}

// TongueIndexCmd sweeps the tongue constriction position sinusoidally,
// grounded on original_source/src/main.rs's tongue_index demo.
type TongueIndexCmd struct{}

func (c *TongueIndexCmd) Run(outDir *string) error {
	return render(*outDir, "tongue_index.wav", baseConfig(), func(v *voc.Voc, block int) {
		x := float64(block)
		idx := math.Sin(x*0.05)*9.0 + 21.0
		v.TongueShape(idx, 2.75)
	})
}

// TongueDiamCmd sweeps the tongue constriction diameter at a fixed
// position, grounded on original_source/src/main.rs's tongue_diameter demo.
type TongueDiamCmd struct{}

func (c *TongueDiamCmd) Run(outDir *string) error {
	return render(*outDir, "tongue_diameter.wav", baseConfig(), func(v *voc.Voc, block int) {
		x := float64(block)
		idx := 21.0
		diam := math.Sin(x*0.05)*3.5/2.0 + 3.5/2.0
		v.TongueShape(idx, diam)
	})
}

// ThroatAndLipsCmd sweeps the throat and lip diameter bands independently,
// grounded on original_source/src/main.rs's throat_and_lips demo.
type ThroatAndLipsCmd struct{}

func (c *ThroatAndLipsCmd) Run(outDir *string) error {
	cfg := baseConfig()
	return render(*outDir, "throat_and_lips.wav", cfg, func(v *voc.Voc, block int) {
		throatN := 7
		lipStart := cfg.LipStart
		lipN := cfg.N - lipStart

		x := float64(block) * 0.5
		y := float64(block) * 0.55

		throat := math.Sin(x)*1.5/2.0 + 0.75
		lips := math.Sin(y)*1.5/2.0 + 0.75

		throatVals := make([]float64, throatN)
		for i := range throatVals {
			throatVals[i] = throat
		}
		v.SetTractDiameters(0, throatVals)

		lipVals := make([]float64, lipN)
		for i := range lipVals {
			lipVals[i] = lips
		}
		v.SetTractDiameters(lipStart, lipVals)
	})
}

// NasalCmd closes the lips and opens the velum, exercising the nasal
// side-branch the way spec.md §8's /m/ scenario does.
type NasalCmd struct{}

func (c *NasalCmd) Run(outDir *string) error {
	return render(*outDir, "nasal.wav", baseConfig(), func(v *voc.Voc, block int) {
		if block == 0 {
			v.SetLips(0)
			v.SetVelum(1.5)
		}
	})
}

// PlosiveCmd closes the lips for the first half of the render, then
// reopens them, producing a transient burst on release.
type PlosiveCmd struct{}

func (c *PlosiveCmd) Run(outDir *string) error {
	cfg := baseConfig()
	closeBlocks := int(durationSecs*cfg.SampleRate/2) / cfg.Chunk
	return render(*outDir, "plosive.wav", cfg, func(v *voc.Voc, block int) {
		switch block {
		case 0:
			v.SetLips(0)
		case closeBlocks:
			v.SetLips(1.5)
		}
	})
}
