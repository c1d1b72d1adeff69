// Streams H.264 frames out of an MP4 file, paced by the packet
// presentation times. The file loops at EOF, so a short clip serves as an
// endless synthetic camera. Example source spec: "mp4:clip.mp4"

package source

import (
	"io"
	"os"
	"time"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/format/mp4"
	"github.com/pkg/errors"
)

type mp4Source struct {
	file    *os.File
	demuxer *mp4.Demuxer

	// Index of the H.264 stream within the container.
	videoIdx int

	quit       chan struct{}
	terminated chan struct{}
}

func OpenMP4(path string) (Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	demuxer := mp4.NewDemuxer(file)
	codecs, err := demuxer.Streams()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "demuxing %s", path)
	}

	videoIdx := -1
	for i, codec := range codecs {
		if codec.Type() == av.H264 {
			info := codec.(av.VideoCodecData)
			log.Info("%s: %v stream %dx%d", path, info.Type(), info.Width(), info.Height())
			videoIdx = i
			break
		}
		log.Debug("%s: skipping %v stream", path, codec.Type())
	}
	if videoIdx < 0 {
		file.Close()
		return nil, errors.Errorf("no H.264 stream in %s", path)
	}

	return &mp4Source{
		file:     file,
		demuxer:  demuxer,
		videoIdx: videoIdx,
	}, nil
}

func (src *mp4Source) Start(sink FrameFunc) error {
	if src.quit != nil {
		return errAlreadyStarted
	}
	src.quit = make(chan struct{})
	src.terminated = make(chan struct{})

	go func() {
		defer close(src.terminated)
		if err := src.readLoop(sink); err != nil {
			log.Error("Read loop for %s failed: %v", src.file.Name(), err)
		}
	}()
	return nil
}

func (src *mp4Source) readLoop(sink FrameFunc) error {
	// Wall clock offset to the first packet in the file.
	var start time.Time

	// Milliseconds already played in previous loops of the file, so frame
	// timestamps keep increasing across the seam.
	var baseMs uint64

	for {
		select {
		case <-src.quit:
			return nil
		default:
		}

		pkt, err := src.demuxer.ReadPacket()
		if err != nil {
			if err == io.EOF {
				// Add a 50 millisecond delay, then play the file again.
				baseMs += uint64(time.Since(start) / time.Millisecond)
				src.demuxer.SeekToTime(0)
				start = time.Now().Add(50 * time.Millisecond)
				continue
			}
			return err
		}
		if pkt.Idx != int8(src.videoIdx) {
			continue
		}

		if start.IsZero() {
			// The read loop might start in the middle of the file, so
			// initialize the start offset accordingly. This first packet
			// will be presented immediately.
			start = time.Now().Add(-pkt.Time)
		} else {
			// Sleep until this packet is ready to be presented.
			time.Sleep(time.Until(start.Add(pkt.Time)))
		}

		sink(pkt.Data, baseMs+uint64(pkt.Time/time.Millisecond))
	}
}

func (src *mp4Source) Stop() error {
	if src.quit == nil {
		return nil
	}
	close(src.quit)
	<-src.terminated
	src.quit = nil
	src.terminated = nil
	return nil
}

func (src *mp4Source) Close() error {
	src.Stop()
	return src.file.Close()
}

func init() {
	Register("mp4", OpenMP4)
}
