package report

import (
	"errors"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyHistory = errors.New("适应度历史为空，无法绘图")

func fitnessPlot(history []int) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	p := plot.New()
	p.Title.Text = "Fitness over time"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	pts := make(plotter.XYs, len(history))
	for i, fitness := range history {
		pts[i].X = float64(i + 1)
		pts[i].Y = float64(fitness)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	p.Add(line)

	return p, nil
}

// FitnessPlot 返回 PNG 格式的适应度曲线，宽高单位为英寸
func FitnessPlot(history []int, width, height float64) (io.WriterTo, error) {
	p, err := fitnessPlot(history)
	if err != nil {
		return nil, err
	}

	return p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, "png")
}

// SaveFitnessPlot 根据文件扩展名（png、svg、pdf 等）保存适应度曲线
func SaveFitnessPlot(history []int, width, height float64, path string) error {
	p, err := fitnessPlot(history)
	if err != nil {
		return err
	}

	return p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, path)
}
