package datastore

import (
	"fmt"

	config2 "github.com/devsapp/serverless-style-transfer-api/pkg/config"
)

type DatastoreFactory struct{}

func (f *DatastoreFactory) NewTable(dbType DatastoreType, tableName string) (Datastore, error) {
	switch dbType {
	case SQLite:
		cfg, err := NewSQLiteConfig(tableName)
		if err != nil {
			return nil, err
		}
		return NewSQLiteDatastore(cfg)
	case TableStore:
		cfg, err := NewOtsConfig(tableName)
		if err != nil {
			return nil, err
		}
		return NewOtsDatastore(cfg)
	default:
		return nil, fmt.Errorf("not support db type=%s", dbType)
	}
}

func NewSQLiteConfig(tableName string) (*Config, error) {
	config := &Config{
		Type:      SQLite,
		DBName:    config2.ConfigGlobal.DbSqlite,
		TableName: tableName,
	}
	switch tableName {
	case KTaskTableName:
		config.ColumnConfig = taskColumnConfig()
		config.ColumnConfig[KTaskIdColumnName] = "TEXT PRIMARY KEY NOT NULL"
		config.PrimaryKeyColumnName = KTaskIdColumnName
	default:
		return nil, fmt.Errorf("unknown table %s", tableName)
	}
	return config, nil
}

func NewOtsConfig(tableName string) (*Config, error) {
	config := &Config{
		Type:        TableStore,
		TableName:   tableName,
		TimeToAlive: config2.ConfigGlobal.OtsTimeToAlive,
		MaxVersion:  config2.ConfigGlobal.OtsMaxVersion,
	}
	switch tableName {
	case KTaskTableName:
		config.ColumnConfig = taskColumnConfig()
		config.PrimaryKeyColumnName = KTaskIdColumnName
	default:
		return nil, fmt.Errorf("unknown table %s", tableName)
	}
	return config, nil
}
