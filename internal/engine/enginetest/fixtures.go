package enginetest

// Canned engine output used across package tests.
const (
	// ProbeVideoWithAudio is ffprobe JSON for a 10 s H.264 + AAC file
	ProbeVideoWithAudio = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "pix_fmt": "yuv420p", "r_frame_rate": "30000/1001"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000",
     "channels": 2, "channel_layout": "stereo"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "10.000000", "bit_rate": "2500000"}
}`

	// ProbeVideoOnly is ffprobe JSON for a file without any audio stream
	ProbeVideoOnly = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 640, "height": 360,
     "pix_fmt": "yuv420p", "r_frame_rate": "25/1"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "4.000000", "bit_rate": "800000"}
}`

	// ProbeAudioWAV is ffprobe JSON for a 10 s mono WAV
	ProbeAudioWAV = `{
  "streams": [
    {"index": 0, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "16000",
     "channels": 1, "channel_layout": "mono"}
  ],
  "format": {"format_name": "wav", "duration": "10.000000", "bit_rate": "256000"}
}`

	// EngineHeader is the input banner ffmpeg prints before processing
	EngineHeader = `Input #0, wav, from 'in.wav':
  Duration: 00:00:10.00, bitrate: 256 kb/s
  Stream #0:0: Audio: pcm_s16le ([1][0][0][0] / 0x0001), 16000 Hz, 1 channels, s16, 256 kb/s
`

	// AstatsSummary is the astats report for a hot, compressed recording
	AstatsSummary = `[Parsed_astats_0 @ 0x5581c0] Channel: 1
[Parsed_astats_0 @ 0x5581c0] DC offset: -0.000012
[Parsed_astats_0 @ 0x5581c0] Peak level dB: -0.500000
[Parsed_astats_0 @ 0x5581c0] RMS level dB: -18.000000
[Parsed_astats_0 @ 0x5581c0] Flat factor: 0.000000
[Parsed_astats_0 @ 0x5581c0] Peak count: 2
[Parsed_astats_0 @ 0x5581c0] Noise floor dB: -52.000000
[Parsed_astats_0 @ 0x5581c0] Dynamic range: 8.000000
[Parsed_astats_0 @ 0x5581c0] Zero crossings: 8000
[Parsed_astats_0 @ 0x5581c0] Zero crossings rate: 0.050000
[Parsed_astats_0 @ 0x5581c0] Overall
[Parsed_astats_0 @ 0x5581c0] Peak level dB: -0.500000
[Parsed_astats_0 @ 0x5581c0] RMS level dB: -18.000000
[Parsed_astats_0 @ 0x5581c0] Flat factor: 0.000000
[Parsed_astats_0 @ 0x5581c0] Noise floor dB: -52.000000
[Parsed_astats_0 @ 0x5581c0] Number of samples: 160000
`

	// SpectralFrames is ametadata print output for two aspectralstats frames
	SpectralFrames = `[Parsed_ametadata_1 @ 0x55d2] frame:0    pts:0       pts_time:0
[Parsed_ametadata_1 @ 0x55d2] lavfi.aspectralstats.1.centroid=400.000000
[Parsed_ametadata_1 @ 0x55d2] lavfi.aspectralstats.1.rolloff=3000.000000
[Parsed_ametadata_1 @ 0x55d2] frame:1    pts:1024    pts_time:0.064
[Parsed_ametadata_1 @ 0x55d2] lavfi.aspectralstats.1.centroid=600.000000
[Parsed_ametadata_1 @ 0x55d2] lavfi.aspectralstats.1.rolloff=5000.000000
`

	// SilenceLog is silencedetect output covering 0.5 s of a 10 s file
	SilenceLog = `[silencedetect @ 0x55d3] silence_start: 2
[silencedetect @ 0x55d3] silence_end: 2.5 | silence_duration: 0.5
`
)
