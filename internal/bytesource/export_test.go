package bytesource

// CodecCount reports how many decompressors d has cached.
func CodecCount(d *DatabaseSource) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.codecs)
}
