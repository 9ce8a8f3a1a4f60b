package util

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommands 各平台打开 URL 的候选命令，按顺序尝试
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上也可用，explorer 作为备选
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		cmds := [][]string{{"xdg-open", url}}
		for _, b := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			cmds = append(cmds, []string{b, url})
		}
		return cmds
	}
}

// OpenBrowser 用系统默认浏览器打开服务地址；全部候选命令失败时返回汇总错误
func OpenBrowser(url string) error {
	var errs []error
	for _, args := range browserCommands(runtime.GOOS, url) {
		err := exec.Command(args[0], args[1:]...).Start()
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", args[0], err))
	}
	return errors.Join(errs...)
}

// ServerURL 本机访问地址
func ServerURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}
