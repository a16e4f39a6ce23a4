package audio

import (
	"bytes"
	"encoding/binary"
)

// wavHeaderSize is the canonical 44-byte RIFF/WAVE/fmt/data header size
// produced by NewWavBuffer and assumed by StripWavHeader.
const wavHeaderSize = 44

func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) 
	binary.Write(buf, binary.LittleEndian, uint16(2))            
	binary.Write(buf, binary.LittleEndian, uint16(16))           

	
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// StripWavHeader returns the raw PCM payload of a canonical 44-byte-header
// WAV buffer, discarding the RIFF/WAVE/fmt/data header. Buffers shorter than
// the header are returned empty rather than erroring, matching upstream TTS
// providers that occasionally emit a bare or truncated frame.
func StripWavHeader(wav []byte) []byte {
	if len(wav) <= wavHeaderSize {
		return nil
	}
	return wav[wavHeaderSize:]
}
