package database

import "context"

const getAppConfig = `
SELECT config_key, config_value
FROM app_config
WHERE config_key = $1
`

func (q *Queries) GetAppConfig(ctx context.Context, key string) (AppConfig, error) {
	row := q.db.QueryRow(ctx, getAppConfig, key)
	var c AppConfig
	err := row.Scan(&c.ConfigKey, &c.ConfigValue)
	return c, err
}

const upsertAppConfig = `
INSERT INTO app_config (config_key, config_value)
VALUES ($1, $2)
ON CONFLICT (config_key) DO UPDATE SET config_value = EXCLUDED.config_value
RETURNING config_key, config_value
`

type UpsertAppConfigParams struct {
	ConfigKey   string
	ConfigValue []byte
}

func (q *Queries) UpsertAppConfig(ctx context.Context, arg UpsertAppConfigParams) (AppConfig, error) {
	row := q.db.QueryRow(ctx, upsertAppConfig, arg.ConfigKey, arg.ConfigValue)
	var c AppConfig
	err := row.Scan(&c.ConfigKey, &c.ConfigValue)
	return c, err
}
