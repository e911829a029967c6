package metrics

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// PlotDETCurve はDET曲線を画像ファイルに描画する
//
// パラメータ:
//   - pMiss, pFA: DETCurveが返すミス率と誤警報率
//   - title: グラフのタイトル
//   - filename: 保存先のファイルパス（拡張子で形式を判定: .png, .svg, .pdf）
func PlotDETCurve(pMiss, pFA []float64, title, filename string) error {
	if len(pMiss) != len(pFA) {
		return errors.NewDimensionError("PlotDETCurve", len(pMiss), len(pFA), 0)
	}
	if len(pMiss) == 0 {
		return errors.NewValueError("PlotDETCurve", "empty curve")
	}

	pts := make(plotter.XYs, len(pMiss))
	for i := range pMiss {
		pts[i].X = pFA[i] * 100
		pts[i].Y = pMiss[i] * 100
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False Alarm probability (%)"
	p.Y.Label.Text = "Miss probability (%)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.NewModelError("PlotDETCurve", "building line plot failed", err)
	}
	p.Add(line)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, filename); err != nil {
		return errors.NewModelError("PlotDETCurve", "saving plot failed", err)
	}
	return nil
}

// PlotROCCurve はROC曲線を画像ファイルに描画する
func PlotROCCurve(fpr, tpr []float64, title, filename string) error {
	if len(fpr) != len(tpr) {
		return errors.NewDimensionError("PlotROCCurve", len(fpr), len(tpr), 0)
	}
	if len(fpr) == 0 {
		return errors.NewValueError("PlotROCCurve", "empty curve")
	}

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.NewModelError("PlotROCCurve", "building line plot failed", err)
	}
	p.Add(line)

	// ランダム判定の対角線
	diag := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	diagLine, err := plotter.NewLine(diag)
	if err != nil {
		return errors.NewModelError("PlotROCCurve", "building diagonal failed", err)
	}
	diagLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagLine)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, filename); err != nil {
		return errors.NewModelError("PlotROCCurve", "saving plot failed", err)
	}
	return nil
}
