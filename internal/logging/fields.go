package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ServeFields 提供挂载点/逻辑路径/指纹状态字段，供资源请求日志复用。
func ServeFields(mount, prefix, logicalPath, processor string, fingerprinted bool) logrus.Fields {
	return logrus.Fields{
		"mount":         mount,
		"prefix":        prefix,
		"path":          logicalPath,
		"processor":     processor,
		"fingerprinted": fingerprinted,
	}
}
