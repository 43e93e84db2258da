package grid

const (
	// Overscan is the number of rows materialized beyond each viewport edge
	Overscan = 5

	// VirtualizeThreshold is the row count above which windowing kicks in
	VirtualizeThreshold = 200
)

// Window is the materialized row range plus the spacer heights that keep the
// scrollable height at totalRows*rowHeight.
type Window struct {
	Start    int
	End      int
	Leading  int
	Trailing int
}

// Len is the number of materialized rows
func (w Window) Len() int {
	return w.End - w.Start
}

// VirtualizationEnabled reports whether rows should be windowed. Grouped views
// are always fully materialized since headers break the fixed row height.
func VirtualizationEnabled(totalRows int, grouped bool) bool {
	return totalRows > VirtualizeThreshold && !grouped
}

// ComputeWindow returns the range [Start, End) to materialize
func ComputeWindow(scrollOffset, viewportHeight, rowHeight, totalRows int) Window {
	if totalRows <= 0 {
		return Window{}
	}
	if rowHeight <= 0 {
		return FullWindow(totalRows)
	}
	scrollOffset = max(0, scrollOffset)
	viewportHeight = max(0, viewportHeight)

	start := max(0, scrollOffset/rowHeight-Overscan)
	end := min(totalRows, ceilDiv(scrollOffset+viewportHeight, rowHeight)+Overscan)
	start = min(start, end)

	return Window{
		Start:    start,
		End:      end,
		Leading:  start * rowHeight,
		Trailing: (totalRows - end) * rowHeight,
	}
}

// FullWindow spans every row with no spacers
func FullWindow(totalRows int) Window {
	return Window{Start: 0, End: max(0, totalRows)}
}

// WindowFor applies the virtualization rules and computes the window
func WindowFor(scrollOffset, viewportHeight, rowHeight, totalRows int, grouped bool) Window {
	if !VirtualizationEnabled(totalRows, grouped) {
		return FullWindow(totalRows)
	}
	return ComputeWindow(scrollOffset, viewportHeight, rowHeight, totalRows)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
