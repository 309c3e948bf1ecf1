package config

// DefaultFile is written when no configuration file exists yet.
const DefaultFile = `{
  "audio": {
    "chime_file": "gong_stereo.mp3",
    "chime_gap": "300ms",
    "sample_rate": 48000,
    "channels": 2,
    "bitrate": "256k",
    "codec": "libmp3lame"
  },
  "airfoil": {
    "volume": 0.7,
    "source": "System-Wide Audio",
    "connect_timeout": "30s",
    "poll_interval": "1s",
    "disconnect_delay": "3s"
  },
  "speakers": [],
  "excluded": [],
  "elevenlabs": {
    "voice_id": "onwK4e9ZLuTAKqWW03F9",
    "format": "opus_48000_192",
    "model": "eleven_multilingual_v2",
    "script": "",
    "requests_per_minute": 60,
    "timeout": "60s"
  },
  "cache": {
    "enabled": true,
    "dir": "",
    "max_size": "64MB",
    "compression_level": 3
  }
}
`
