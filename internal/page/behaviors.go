package page

// FlipToggle flips the card that contains target.
func FlipToggle(target Element) {
	if card := Closest(target, SelectorCard); card != nil {
		ToggleClass(card, ClassFlipped)
	}
}

// NormalizeFlipHeights grows each flip container to its front face when the
// front is taller than the back, so the card does not clip while flipped.
func NormalizeFlipHeights(doc Document) {
	for _, toggle := range doc.Query(SelectorFlipToggle) {
		container := toggle.Parent()
		if container == nil {
			continue
		}
		fronts := container.Query(SelectorFront)
		backs := container.Query(SelectorBack)
		if len(fronts) == 0 || len(backs) == 0 {
			continue
		}
		if front := fronts[0].Height(); front > backs[0].Height() {
			container.SetHeight(front)
		}
	}
}

// EqualizeRows sets the boxes of every column in a same-height row to the
// height of the tallest column.
func EqualizeRows(doc Document) {
	for _, row := range doc.Query(SelectorSameHeight) {
		cols := ChildrenMatching(row, SelectorColumn)
		if len(cols) == 0 {
			continue
		}
		tallest := cols[0].Height()
		for _, col := range cols[1:] {
			tallest = max(tallest, col.Height())
		}
		for _, col := range cols {
			for _, box := range ChildrenMatching(col, SelectorBox) {
				box.SetHeight(tallest)
			}
		}
	}
}

// Install wires the behaviors to loop. Equal-height rows are not wired;
// callers run EqualizeRows explicitly.
func Install(loop *Loop, doc Document) {
	loop.On(EventReady, func(ev Event) {
		NormalizeFlipHeights(doc)
		Apply(doc, MobileClasses(ev.Viewport))
	})
	loop.On(EventClick, func(ev Event) {
		if ev.Target == nil {
			return
		}
		if trigger := Closest(ev.Target, SelectorFlipTrigger); trigger != nil {
			FlipToggle(trigger)
		}
	})
	loop.On(EventResize, func(ev Event) {
		Apply(doc, MobileClasses(ev.Viewport))
	})
	loop.On(EventScroll, func(ev Event) {
		Apply(doc, ScrollClasses(ev.Viewport))
	})
}
