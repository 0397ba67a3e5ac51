package logic

// Classifier is the inspection collaborator. Classify inspects the bead
// currently presented to the camera and returns the destination slot index in
// [0, slotCount). It may block for as long as the inspection takes; the
// sequencer calls it off its tick loop and keeps ticking (and pausing) while
// it waits. An error means the bead could not be classified and is routed to
// the waste slot.
type Classifier interface {
	Classify() (slot int, err error)
}
