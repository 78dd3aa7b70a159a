package capture

import "github.com/cjsmocjsmo/streamserverclient/src/models"

// RingBuffer forwards frames from its input to a bounded output channel.
// When the consumer falls behind the oldest frame is dropped, so a reader
// always gets the most recent frames.
type RingBuffer struct {
	inputChannel  chan *models.Frame
	outputChannel chan *models.Frame
}

func NewRingBuffer(inputChannel chan *models.Frame, outputChannel chan *models.Frame) *RingBuffer {
	return &RingBuffer{inputChannel, outputChannel}
}

func (r *RingBuffer) Run() {
	for v := range r.inputChannel {
		select {
		case r.outputChannel <- v:
		default:
			select {
			case <-r.outputChannel:
				r.outputChannel <- v
			default:
				r.outputChannel <- v
			}
		}
	}
	close(r.outputChannel)
}

// Close stops the buffer; frames still queued can be drained from the
// output channel.
func (r *RingBuffer) Close() {
	close(r.inputChannel)
}

func CreateBuffer(bufferSize int) (*RingBuffer, chan *models.Frame, chan *models.Frame) {
	write := make(chan *models.Frame)
	read := make(chan *models.Frame, bufferSize)
	buffer := NewRingBuffer(write, read)
	go buffer.Run()
	return buffer, write, read
}
