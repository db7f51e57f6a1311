// Command gcpu10view renders the finished memory image of an assembled
// program as a color-coded grid: one cell per word, code and data shown
// in distinct colors, with symbol-defining addresses filled in a third
// color (zero-valued data words are drawn as empty cells). It never
// executes the program — it only reads the artifacts the core produced.
package main

import (
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"gcpu10/pkg/asm"
	"gcpu10/pkg/grid"
	"gcpu10/pkg/macro"
	"gcpu10/pkg/nameset"
	"gcpu10/pkg/symtab"
	"gcpu10/pkg/utils"
)

const (
	cellSize = 8
	gridCols = 32
)

var (
	colorCode   = color.RGBA{0x3a, 0x6e, 0xa5, 0xff}
	colorData   = color.RGBA{0x9a, 0x5a, 0x2a, 0xff}
	colorSymbol = color.RGBA{0xff, 0xd5, 0x4a, 0xff}
	colorEmpty  = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

type game struct {
	res        *asm.Result
	symbolAddr map[int]string
}

func (g *game) Update() error { return nil }

func (g *game) Draw(screen *ebiten.Image) {
	words := g.res.Code.Words()
	for i, w := range words {
		x, y := grid.GetGridCoords(i, gridCols)
		addr := asm.ICStart + i
		cellColor := colorData
		if addr < g.res.ICFinal {
			cellColor = colorCode
		}
		if _, ok := g.symbolAddr[addr]; ok {
			cellColor = colorSymbol
		}
		if w.Value == 0 && addr >= g.res.ICFinal {
			cellColor = colorEmpty
		}
		vector := ebiten.NewImage(cellSize-1, cellSize-1)
		vector.Fill(cellColor)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(x*cellSize), float64(y*cellSize))
		screen.DrawImage(vector, op)
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("code=%d data=%d symbols=%d",
		g.res.ICFinal-asm.ICStart, g.res.DCFinal, len(g.symbolAddr)))
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	rows := (len(g.res.Code.Words()) + gridCols - 1) / gridCols
	return gridCols * cellSize, rows * cellSize
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: gcpu10view <base-name>")
	}
	base := utils.BaseName(os.Args[1])

	srcBytes, err := os.ReadFile(utils.SourcePath(base))
	if err != nil {
		log.Fatalf("reading %s: %v", utils.SourcePath(base), err)
	}

	lines := splitLines(string(srcBytes))
	names := nameset.New()
	expanded, errs := macro.Expand(lines, names)
	if errs.Len() > 0 {
		log.Fatalf("macro expansion failed for %s", base)
	}

	res := asm.Assemble(expanded, names)
	if res.Errors.Len() > 0 {
		log.Fatalf("assembly failed for %s", base)
	}

	symbolAddr := make(map[int]string)
	res.Symbols.ForEach(func(s symtab.Symbol) {
		if s.Defined() {
			symbolAddr[s.Value] = s.Name
		}
	})

	ebiten.SetWindowTitle("gcpu10 memory image: " + base)
	if err := ebiten.RunGame(&game{res: res, symbolAddr: symbolAddr}); err != nil {
		log.Fatal(err)
	}
}

func splitLines(src string) []string {
	var out []string
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			out = append(out, src[start:i])
			start = i + 1
		}
	}
	if start < len(src) {
		out = append(out, src[start:])
	}
	return out
}
