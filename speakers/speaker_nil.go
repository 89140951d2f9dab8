package speakers

/// BeeperNil is the silent backend for headless use and tests.
///
type BeeperNil struct {
	beeping bool
}

func (s *BeeperNil) SetBeeping(on bool) {
	s.beeping = on
}

func (s *BeeperNil) Close() error {
	return nil
}
