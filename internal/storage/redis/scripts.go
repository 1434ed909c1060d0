package redis

const (
	// backupScript atomically copies the primary snapshot into the
	// backup record. Returns 1 on success, 0 when there is no primary
	// snapshot to copy.
	backupScript = `
local data_key = KEYS[1]      -- cliffdive:usage:data
local backup_key = KEYS[2]    -- cliffdive:usage:backup

local timestamp = ARGV[1]

local data = redis.call('GET', data_key)
if not data then
  return 0
end

local record = '{"timestamp":"' .. timestamp .. '","usageData":' .. data .. '}'
redis.call('SET', backup_key, record)

return 1
`
)
