// Package audio groups the audio front end of the Whisper pipeline:
//
//   - pcm: 16-bit signed little-endian mono PCM and WAV containers
//   - resampler: sample rate conversion to the 16 kHz model rate
//   - melspec: log-mel spectrogram extraction
//
// Example usage:
//
//	samples, _ := pcm.DecodeS16LE(body)
//	audio, _ := resampler.Resample(pcm.ToFloat32(samples), 8000, 16000)
//	mel, _ := extractor.Extract(audio)
//	mel, _ = melspec.FitFrames(mel, melspec.ModelFrames)
package audio
