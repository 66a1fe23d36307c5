package db

// SchemaVersion is the compiled schema version. When the version recorded in
// the store differs, Open runs the full DDL again, which drops and recreates
// every table. There is no migration path; callers accept the rebuild.
const SchemaVersion = 10

// StoreFilename is the name of the store file inside the caller supplied
// directory.
const StoreFilename = "dcli.sqlite3"

const schema = `
DROP TABLE IF EXISTS version;
DROP TABLE IF EXISTS member;
DROP TABLE IF EXISTS character;
DROP TABLE IF EXISTS sync;
DROP TABLE IF EXISTS activity;
DROP TABLE IF EXISTS modes;
DROP TABLE IF EXISTS team_result;
DROP TABLE IF EXISTS activity_queue;
DROP TABLE IF EXISTS character_activity_stats;
DROP TABLE IF EXISTS weapon_result;
DROP TABLE IF EXISTS medal_result;

CREATE TABLE version (
    version INTEGER NOT NULL
);

CREATE TABLE member (
    member_id INTEGER PRIMARY KEY NOT NULL,
    platform_id INTEGER NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    bungie_display_name TEXT NOT NULL DEFAULT '',
    bungie_display_name_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE character (
    character_id INTEGER PRIMARY KEY NOT NULL,
    member_id INTEGER NOT NULL,
    class INTEGER NOT NULL,
    FOREIGN KEY (member_id) REFERENCES member (member_id)
);
CREATE INDEX idx_character_member ON character (member_id);

CREATE TABLE sync (
    member_id INTEGER PRIMARY KEY NOT NULL,
    last_sync INTEGER NOT NULL,
    FOREIGN KEY (member_id) REFERENCES member (member_id)
);

CREATE TABLE activity (
    activity_id INTEGER PRIMARY KEY NOT NULL,
    period INTEGER NOT NULL,
    mode INTEGER NOT NULL,
    platform_id INTEGER NOT NULL,
    director_activity_hash INTEGER NOT NULL,
    reference_id INTEGER NOT NULL
);
CREATE INDEX idx_activity_period ON activity (period);

CREATE TABLE modes (
    activity INTEGER NOT NULL,
    mode INTEGER NOT NULL,
    PRIMARY KEY (activity, mode),
    FOREIGN KEY (activity) REFERENCES activity (activity_id)
);
CREATE INDEX idx_modes_mode ON modes (mode);

CREATE TABLE team_result (
    activity INTEGER NOT NULL,
    team_id INTEGER NOT NULL,
    score INTEGER NOT NULL,
    standing INTEGER NOT NULL,
    PRIMARY KEY (activity, team_id),
    FOREIGN KEY (activity) REFERENCES activity (activity_id)
);

CREATE TABLE activity_queue (
    activity_id INTEGER NOT NULL,
    character INTEGER NOT NULL,
    synced INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (activity_id, character)
);
CREATE INDEX idx_activity_queue_character ON activity_queue (character, synced);

CREATE TABLE character_activity_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    character INTEGER NOT NULL,
    activity INTEGER NOT NULL,
    kills INTEGER NOT NULL,
    deaths INTEGER NOT NULL,
    assists INTEGER NOT NULL,
    score INTEGER NOT NULL,
    opponents_defeated INTEGER NOT NULL,
    completed INTEGER NOT NULL,
    standing INTEGER NOT NULL,
    team INTEGER NOT NULL,
    completion_reason INTEGER NOT NULL,
    start_seconds INTEGER NOT NULL,
    activity_duration_seconds INTEGER NOT NULL,
    time_played_seconds INTEGER NOT NULL,
    player_count INTEGER NOT NULL,
    team_score INTEGER NOT NULL,
    precision_kills INTEGER NOT NULL,
    weapon_kills_ability INTEGER NOT NULL,
    weapon_kills_grenade INTEGER NOT NULL,
    weapon_kills_melee INTEGER NOT NULL,
    weapon_kills_super INTEGER NOT NULL,
    all_medals_earned INTEGER NOT NULL,
    light_level INTEGER NOT NULL,
    emblem_hash INTEGER NOT NULL,
    fireteam_id INTEGER NOT NULL,
    UNIQUE (character, activity),
    FOREIGN KEY (activity) REFERENCES activity (activity_id),
    FOREIGN KEY (character) REFERENCES character (character_id)
);
CREATE INDEX idx_cas_character ON character_activity_stats (character);
CREATE INDEX idx_cas_activity ON character_activity_stats (activity);

CREATE TABLE weapon_result (
    character_activity_stats INTEGER NOT NULL,
    reference_id INTEGER NOT NULL,
    kills INTEGER NOT NULL,
    precision_kills INTEGER NOT NULL,
    kills_precision_kills_ratio REAL NOT NULL,
    PRIMARY KEY (character_activity_stats, reference_id),
    FOREIGN KEY (character_activity_stats) REFERENCES character_activity_stats (id)
);

CREATE TABLE medal_result (
    character_activity_stats INTEGER NOT NULL,
    reference_id TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (character_activity_stats, reference_id),
    FOREIGN KEY (character_activity_stats) REFERENCES character_activity_stats (id)
);
`
