package checkpointer

// nStep implements checkpointing every N iterations
type nStep struct {
	interval int
	dir      *Dir
}

// NewNStep returns a checkpointer that saves to dir every n
// iterations, keying each checkpoint by its iteration
func NewNStep(n int, dir *Dir) Checkpointer {
	if n < 1 {
		n = 1
	}
	return &nStep{
		interval: n,
		dir:      dir,
	}
}

// Checkpoint saves the Checkpointer's tracked object if iteration is a
// multiple of the interval
func (n *nStep) Checkpoint(iteration int) error {
	if iteration%n.interval == 0 {
		return n.dir.Save(iteration)
	}
	return nil
}
