package sequencer

import "flowseq/pkg/fileutil"

// playPCMClip opens path, parses its RIFF/WAVE header, and streams its
// data chunk(s) to out in fixed-size transfer buffers, per spec §4.9.
// It runs on its own goroutine, already past the counter bookkeeping
// the caller (sequencer.go) performs around the spawn.
func playPCMClip(fs fileutil.FileSystem, path string, port int, out PCMOut) error {
	raw, err := fs.ReadFile(path)
	if err != nil {
		return newErr(KindInvalidFile, "cannot open wave file", err)
	}

	format, frames, err := decodeWAV(raw)
	if err != nil {
		return err
	}

	if err := out.Open(port, format); err != nil {
		return newErr(KindOutputDevice, "cannot open audio output device", err)
	}
	defer out.Close()

	for off := 0; off < len(frames); off += wavTransferBufSize {
		end := off + wavTransferBufSize
		if end > len(frames) {
			end = len(frames)
		}
		if err := writeFramesWithRetry(out, frames[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// writeFramesWithRetry attempts one recovery retry on a failed write
// before raising OutputDevice, per spec §4.9 step 4.
func writeFramesWithRetry(out PCMOut, buf []byte) error {
	if err := out.WriteFrames(buf); err == nil {
		return nil
	}
	if err := out.WriteFrames(buf); err != nil {
		return newErr(KindOutputDevice, "audio device write failed after retry", err)
	}
	return nil
}
