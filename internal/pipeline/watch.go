package pipeline

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch 监听该环境所有 load path 下的源文件变更，在 debounce 窗口后
// 清空 memo，让下一次请求重新构建。返回的 stop 函数释放 watcher。
func (e *Environment) Watch(debounce time.Duration) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range e.loadPaths {
		if err := addRecursive(watcher, dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	done := make(chan struct{})
	go e.watchLoop(watcher, debounce, done)

	return func() {
		watcher.Close()
		<-done
	}, nil
}

func (e *Environment) watchLoop(watcher *fsnotify.Watcher, debounce time.Duration, done chan<- struct{}) {
	defer close(done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// 新建目录也纳入监听，保证深层文件的后续变更可见。
			if event.Op&fsnotify.Create != 0 {
				_ = addRecursive(watcher, event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			e.InvalidateAll()
			e.logger.WithFields(logrus.Fields{
				"action": "watch_invalidate",
				"mount":  e.mount.Name,
			}).Debug("memo_cleared")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.WithError(err).WithFields(logrus.Fields{
				"action": "watch",
				"mount":  e.mount.Name,
			}).Warn("watch_error")
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
