package remote

// Package remote adapts the external collaborators the engine depends on:
// listing the current contents of a playlist (via github.com/ytget/ytdlp/v2)
// and materializing individual items as finished media files (via the yt-dlp
// executable). Listings are validated into strongly typed items before they
// reach the diff engine.
