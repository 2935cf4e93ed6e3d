package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ArtifactFields 标识某个存储中的条目。
func ArtifactFields(store, key string) logrus.Fields {
	return logrus.Fields{
		"store": store,
		"key":   key,
	}
}

// JobFields 标识一次数据生成任务。
func JobFields(entryPoint, jobID string) logrus.Fields {
	return logrus.Fields{
		"entry_point": entryPoint,
		"job_id":      jobID,
	}
}

// VersionFields 标识导入流程中的游戏版本。
func VersionFields(versionID string, dataVersion int) logrus.Fields {
	return logrus.Fields{
		"version":      versionID,
		"data_version": dataVersion,
	}
}
