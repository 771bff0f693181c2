package vocab

import "github.com/nadzzz/beckon/internal/config"

// DefaultApps returns the application table for goos.
func DefaultApps(goos string) []config.VocabEntry {
	switch goos {
	case "darwin":
		return []config.VocabEntry{
			{Name: "chrome", Value: "Google Chrome"},
			{Name: "spotify", Value: "Spotify"},
			{Name: "safari", Value: "Safari"},
			{Name: "firefox", Value: "Firefox"},
			{Name: "code", Value: "Visual Studio Code"},
			{Name: "terminal", Value: "Terminal"},
		}
	case "windows":
		return []config.VocabEntry{
			{Name: "chrome", Value: "chrome.exe"},
			{Name: "spotify", Value: "Spotify.exe"},
			{Name: "firefox", Value: "firefox.exe"},
			{Name: "code", Value: "Code.exe"},
			{Name: "notepad", Value: "notepad.exe"},
		}
	default:
		return []config.VocabEntry{
			{Name: "chrome", Value: "google-chrome"},
			{Name: "firefox", Value: "firefox"},
			{Name: "spotify", Value: "spotify"},
			{Name: "code", Value: "code"},
			{Name: "terminal", Value: "gnome-terminal"},
		}
	}
}

// DefaultSites returns the website table.
func DefaultSites() []config.VocabEntry {
	return []config.VocabEntry{
		{Name: "youtube", Value: "https://youtube.com"},
		{Name: "gmail", Value: "https://mail.google.com"},
		{Name: "google", Value: "https://google.com"},
		{Name: "facebook", Value: "https://facebook.com"},
		{Name: "twitter", Value: "https://twitter.com"},
		{Name: "github", Value: "https://github.com"},
		{Name: "stackoverflow", Value: "https://stackoverflow.com"},
		{Name: "netflix", Value: "https://netflix.com"},
		{Name: "amazon", Value: "https://amazon.com"},
		{Name: "reddit", Value: "https://reddit.com"},
		{Name: "instagram", Value: "https://instagram.com"},
		{Name: "linkedin", Value: "https://linkedin.com"},
		{Name: "whatsapp", Value: "https://web.whatsapp.com"},
		{Name: "discord", Value: "https://discord.com"},
		{Name: "notion", Value: "https://notion.so"},
		{Name: "chatgpt", Value: "https://chat.openai.com"},
		{Name: "claude", Value: "https://claude.ai"},
		{Name: "spotify", Value: "https://open.spotify.com"},
	}
}

// DefaultSearchEngines returns the search endpoint table. Order matters:
// platform detection picks the first name found in the utterance.
func DefaultSearchEngines() []config.VocabEntry {
	return []config.VocabEntry{
		{Name: "youtube", Value: "https://www.youtube.com/results?search_query="},
		{Name: "spotify", Value: "https://open.spotify.com/search/"},
		{Name: "google", Value: "https://www.google.com/search?q="},
		{Name: "amazon", Value: "https://www.amazon.com/s?k="},
		{Name: "netflix", Value: "https://www.netflix.com/search?q="},
	}
}
