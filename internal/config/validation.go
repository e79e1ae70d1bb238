package config

import (
	"errors"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.CachePath == "" {
		return newFieldError("Global.CachePath", "不能为空")
	}
	if g.WatchDebounce.DurationValue() < 0 {
		return newFieldError("Global.WatchDebounce", "不能为负数")
	}

	if len(c.Mounts) == 0 {
		return errors.New("至少需要配置一个 Mount")
	}

	seenNames := map[string]struct{}{}
	seenPrefixes := map[string]struct{}{}
	for i := range c.Mounts {
		mount := &c.Mounts[i]
		if mount.Name == "" {
			return newFieldError("Mount[].Name", "不能为空")
		}
		if _, exists := seenNames[mount.Name]; exists {
			return newFieldError(mountField(mount.Name, "Name"), "重复")
		}
		seenNames[mount.Name] = struct{}{}

		if err := validatePrefix(mount.Prefix); err != nil {
			return newFieldError(mountField(mount.Name, "Prefix"), err.Error())
		}
		if _, exists := seenPrefixes[mount.Prefix]; exists {
			return newFieldError(mountField(mount.Name, "Prefix"), "重复")
		}
		seenPrefixes[mount.Prefix] = struct{}{}

		if mount.Root == "" {
			return newFieldError(mountField(mount.Name, "Root"), "不能为空")
		}

		switch strings.ToLower(strings.TrimSpace(mount.Minify)) {
		case "", "on", "off":
		default:
			return newFieldError(mountField(mount.Name, "Minify"), "仅支持 on/off 或留空")
		}
	}

	return nil
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return errors.New("不能为空")
	}
	if !strings.HasPrefix(prefix, "/") {
		return errors.New("必须以 / 开头")
	}
	if prefix == "/" {
		return errors.New("不允许挂载到根路径")
	}
	if strings.Contains(prefix, "..") {
		return errors.New("不允许包含 ..")
	}
	if strings.Contains(prefix, " ") {
		return errors.New("不允许包含空格")
	}
	return nil
}
